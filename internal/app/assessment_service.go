package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"mindcoach-service/internal/domain"
	"mindcoach-service/internal/metrics"
	"mindcoach-service/internal/scoring"
)

// QuestionRepository loads the active question set (from cache/backing store).
type QuestionRepository interface {
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	// Invalidate drops any cached copy so the next read hits the backing store.
	Invalidate(ctx context.Context) error
}

// QuestionWriter persists authored questions.
type QuestionWriter interface {
	SaveQuestion(ctx context.Context, q domain.Question) error
}

// EvaluationRepository stores one evaluation record per submission.
// Save creates a record when rec.ID is empty and returns the new id; otherwise
// it replaces the record with that id, or fails with domain.ErrEvaluationNotFound.
type EvaluationRepository interface {
	Save(ctx context.Context, rec *domain.EvaluationRecord) (string, error)
	Get(ctx context.Context, id string) (domain.EvaluationRecord, error)
	LatestByPlayer(ctx context.Context, playerID string) (domain.EvaluationRecord, error)
	// ListLatest returns the most recent record of every player.
	ListLatest(ctx context.Context) ([]domain.EvaluationRecord, error)
}

// EventPublisher fans saved evaluations out to other systems.
type EventPublisher interface {
	PublishEvaluation(ctx context.Context, rec domain.EvaluationRecord) error
}

// SubmitResult is what a player sees right after submitting.
type SubmitResult struct {
	RecordID   string                      `json:"recordId,omitempty"`
	Evaluation domain.AssessmentEvaluation `json:"evaluation"`
	domain.StrengthsAndBlockers
}

// PlayerReport is the coach-facing view of a player's latest assessment.
type PlayerReport struct {
	Record domain.EvaluationRecord `json:"record"`
	domain.StrengthsAndBlockers
	PerformanceLabel string `json:"performanceLabel"`
}

// PlayerScore pairs a player with their latest percentage.
type PlayerScore struct {
	PlayerID string `json:"playerId"`
	Percent  int    `json:"percent"`
}

// TeamOverview aggregates the latest evaluation of every player.
type TeamOverview struct {
	Players        int           `json:"players"`
	AveragePercent int           `json:"averagePercent"`
	Best           *PlayerScore  `json:"best,omitempty"`
	Worst          *PlayerScore  `json:"worst,omitempty"`
	TopBlockers    []string      `json:"topBlockers"`
	Scores         []PlayerScore `json:"scores"`
}

// AssessmentService contains the assessment use cases.
type AssessmentService struct {
	questions   QuestionRepository
	writer      QuestionWriter
	evaluations EvaluationRepository
	events      EventPublisher
	now         func() time.Time
}

func NewAssessmentService(questions QuestionRepository, evaluations EvaluationRepository) *AssessmentService {
	return &AssessmentService{
		questions:   questions,
		evaluations: evaluations,
		now:         time.Now,
	}
}

// SetQuestionWriter enables question authoring.
func (s *AssessmentService) SetQuestionWriter(w QuestionWriter) {
	s.writer = w
}

// SetEventPublisher wires an optional event sink.
func (s *AssessmentService) SetEventPublisher(p EventPublisher) {
	s.events = p
}

// SetClock is test-only for deterministic timestamps.
func (s *AssessmentService) SetClock(now func() time.Time) {
	s.now = now
}

// ListQuestions returns the active questions sorted by display order.
func (s *AssessmentService) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	questions, err := s.questions.ListQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	// the cache hands out shared slices
	sorted := make([]domain.Question, len(questions))
	copy(sorted, questions)
	domain.SortQuestions(sorted)
	return sorted, nil
}

// CreateQuestion validates and stores a question, then drops cached copies.
func (s *AssessmentService) CreateQuestion(ctx context.Context, q domain.Question) (domain.Question, error) {
	if s.writer == nil {
		return domain.Question{}, domain.ErrQuestionStoreReadOnly
	}
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.now().UTC()
	}
	if err := s.writer.SaveQuestion(ctx, q); err != nil {
		return domain.Question{}, fmt.Errorf("save question: %w", err)
	}
	if err := s.questions.Invalidate(ctx); err != nil {
		log.Printf("question cache invalidate failed: %v", err)
	}
	return q, nil
}

// Submit evaluates answers and stores the result. An explicit recordID updates
// that record; otherwise the player's latest record is updated, or a new one
// is created. When only the save fails the evaluation is still returned
// alongside an error wrapping domain.ErrPersistence.
func (s *AssessmentService) Submit(ctx context.Context, playerID string, answers domain.AnswerSelection, recordID string) (SubmitResult, error) {
	questions, err := s.ListQuestions(ctx)
	if err != nil {
		metrics.ObserveSubmission("fetch_failed", 0)
		return SubmitResult{}, err
	}

	evaluation := scoring.Evaluate(questions, answers)
	record := domain.EvaluationRecord{
		PlayerID:             playerID,
		AssessmentEvaluation: evaluation,
		CreatedAt:            s.now().UTC(),
	}

	existing, err := s.resolveRecord(ctx, playerID, recordID)
	switch {
	case errors.Is(err, domain.ErrRecordOwnership), errors.Is(err, domain.ErrEvaluationNotFound):
		return SubmitResult{}, err
	case err != nil:
		metrics.ObserveSubmission("save_failed", evaluation.Percent)
		return newSubmitResult(record), fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	case existing != nil:
		record.ID = existing.ID
		record.CoachNotes = existing.CoachNotes
	}

	id, err := s.evaluations.Save(ctx, &record)
	if err != nil {
		metrics.ObserveSubmission("save_failed", evaluation.Percent)
		log.Printf("save evaluation for %s failed: %v", playerID, err)
		return newSubmitResult(record), fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	record.ID = id
	metrics.ObserveSubmission("saved", evaluation.Percent)

	if s.events != nil {
		if err := s.events.PublishEvaluation(ctx, record); err != nil {
			log.Printf("publish evaluation %s failed: %v", id, err)
		}
	}
	return newSubmitResult(record), nil
}

func newSubmitResult(rec domain.EvaluationRecord) SubmitResult {
	return SubmitResult{
		RecordID:             rec.ID,
		Evaluation:           rec.AssessmentEvaluation,
		StrengthsAndBlockers: scoring.DeriveStrengthsAndBlockers(rec.AssessmentEvaluation),
	}
}

// resolveRecord picks the record a submission overwrites, nil meaning "create".
func (s *AssessmentService) resolveRecord(ctx context.Context, playerID, recordID string) (*domain.EvaluationRecord, error) {
	if recordID != "" {
		rec, err := s.evaluations.Get(ctx, recordID)
		if err != nil {
			return nil, err
		}
		if rec.PlayerID != playerID {
			return nil, domain.ErrRecordOwnership
		}
		return &rec, nil
	}

	rec, err := s.evaluations.LatestByPlayer(ctx, playerID)
	if errors.Is(err, domain.ErrEvaluationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest evaluation: %w", err)
	}
	return &rec, nil
}

// Report builds the latest report for a player.
func (s *AssessmentService) Report(ctx context.Context, playerID string) (PlayerReport, error) {
	rec, err := s.evaluations.LatestByPlayer(ctx, playerID)
	if err != nil {
		return PlayerReport{}, err
	}
	return PlayerReport{
		Record:               rec,
		StrengthsAndBlockers: scoring.DeriveStrengthsAndBlockers(rec.AssessmentEvaluation),
		PerformanceLabel:     scoring.PerformanceLabel(rec.Percent),
	}, nil
}

// SetCoachNotes attaches notes to the player's latest record.
func (s *AssessmentService) SetCoachNotes(ctx context.Context, playerID, notes string) (domain.EvaluationRecord, error) {
	rec, err := s.evaluations.LatestByPlayer(ctx, playerID)
	if err != nil {
		return domain.EvaluationRecord{}, err
	}
	rec.CoachNotes = notes
	if _, err := s.evaluations.Save(ctx, &rec); err != nil {
		return domain.EvaluationRecord{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return rec, nil
}

// Overview summarises the latest evaluation of every player.
func (s *AssessmentService) Overview(ctx context.Context) (TeamOverview, error) {
	records, err := s.evaluations.ListLatest(ctx)
	if err != nil {
		return TeamOverview{}, fmt.Errorf("list evaluations: %w", err)
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PlayerID < records[j].PlayerID
	})

	overview := TeamOverview{
		Players:     len(records),
		TopBlockers: []string{},
		Scores:      make([]PlayerScore, 0, len(records)),
	}
	if len(records) == 0 {
		return overview, nil
	}

	total := 0
	blockerCounts := make(map[string]int)
	for _, rec := range records {
		score := PlayerScore{PlayerID: rec.PlayerID, Percent: rec.Percent}
		overview.Scores = append(overview.Scores, score)
		total += rec.Percent

		if overview.Best == nil || score.Percent > overview.Best.Percent {
			best := score
			overview.Best = &best
		}
		if overview.Worst == nil || score.Percent < overview.Worst.Percent {
			worst := score
			overview.Worst = &worst
		}
		for _, label := range scoring.DeriveStrengthsAndBlockers(rec.AssessmentEvaluation).Blockers {
			blockerCounts[label]++
		}
	}
	overview.AveragePercent = int(math.Floor(float64(total)/float64(len(records)) + 0.5))
	overview.TopBlockers = rankLabels(blockerCounts, scoring.MaxSummaryLabels)
	return overview, nil
}

// rankLabels orders labels by count descending, then alphabetically.
func rankLabels(counts map[string]int, limit int) []string {
	labels := make([]string, 0, len(counts))
	for label := range counts {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})
	if len(labels) > limit {
		labels = labels[:limit]
	}
	return labels
}
