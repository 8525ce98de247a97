package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"mindcoach-service/internal/domain"
)

// NewBunDB opens a bun handle over the pgdriver connector.
func NewBunDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

type evaluationRow struct {
	bun.BaseModel `bun:"table:evaluations"`

	ID          string                         `bun:"id,pk"`
	PlayerID    string                         `bun:"player_id,notnull"`
	RawScore    int                            `bun:"raw_score"`
	MaxScore    int                            `bun:"max_score"`
	Percent     int                            `bun:"percent"`
	PerQuestion []domain.PerQuestionEvaluation `bun:"per_question,type:jsonb"`
	CoachNotes  string                         `bun:"coach_notes"`
	CreatedAt   time.Time                      `bun:"created_at"`
}

func toRow(rec domain.EvaluationRecord) *evaluationRow {
	perQuestion := rec.PerQuestion
	if perQuestion == nil {
		perQuestion = []domain.PerQuestionEvaluation{}
	}
	return &evaluationRow{
		ID:          rec.ID,
		PlayerID:    rec.PlayerID,
		RawScore:    rec.RawScore,
		MaxScore:    rec.MaxScore,
		Percent:     rec.Percent,
		PerQuestion: perQuestion,
		CoachNotes:  rec.CoachNotes,
		CreatedAt:   rec.CreatedAt,
	}
}

func (r evaluationRow) record() domain.EvaluationRecord {
	return domain.EvaluationRecord{
		ID:       r.ID,
		PlayerID: r.PlayerID,
		AssessmentEvaluation: domain.AssessmentEvaluation{
			RawScore:    r.RawScore,
			MaxScore:    r.MaxScore,
			Percent:     r.Percent,
			PerQuestion: r.PerQuestion,
			CoachNotes:  r.CoachNotes,
		},
		CreatedAt: r.CreatedAt,
	}
}

// EvaluationRepository stores evaluation records in Postgres via bun.
type EvaluationRepository struct {
	db *bun.DB
}

func NewEvaluationRepository(db *bun.DB) *EvaluationRepository {
	return &EvaluationRepository{db: db}
}

func (r *EvaluationRepository) Save(ctx context.Context, rec *domain.EvaluationRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
		if _, err := r.db.NewInsert().Model(toRow(*rec)).Exec(ctx); err != nil {
			rec.ID = ""
			return "", fmt.Errorf("insert evaluation: %w", err)
		}
		return rec.ID, nil
	}

	res, err := r.db.NewUpdate().Model(toRow(*rec)).WherePK().Exec(ctx)
	if err != nil {
		return "", fmt.Errorf("update evaluation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", domain.ErrEvaluationNotFound
	}
	return rec.ID, nil
}

func (r *EvaluationRepository) Get(ctx context.Context, id string) (domain.EvaluationRecord, error) {
	var row evaluationRow
	err := r.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EvaluationRecord{}, domain.ErrEvaluationNotFound
	}
	if err != nil {
		return domain.EvaluationRecord{}, fmt.Errorf("get evaluation: %w", err)
	}
	return row.record(), nil
}

func (r *EvaluationRepository) LatestByPlayer(ctx context.Context, playerID string) (domain.EvaluationRecord, error) {
	var row evaluationRow
	err := r.db.NewSelect().
		Model(&row).
		Where("player_id = ?", playerID).
		OrderExpr("created_at DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EvaluationRecord{}, domain.ErrEvaluationNotFound
	}
	if err != nil {
		return domain.EvaluationRecord{}, fmt.Errorf("latest evaluation: %w", err)
	}
	return row.record(), nil
}

func (r *EvaluationRepository) ListLatest(ctx context.Context) ([]domain.EvaluationRecord, error) {
	var rows []evaluationRow
	err := r.db.NewSelect().
		Model(&rows).
		DistinctOn("player_id").
		OrderExpr("player_id, created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	out := make([]domain.EvaluationRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.record())
	}
	return out, nil
}
