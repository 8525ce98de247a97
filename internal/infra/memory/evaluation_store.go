package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"mindcoach-service/internal/domain"
)

// EvaluationStore is an in-memory implementation of app.EvaluationRepository.
type EvaluationStore struct {
	mu      sync.RWMutex
	records map[string]domain.EvaluationRecord
	// order of creation, used to find a player's latest record
	order []string
}

func NewEvaluationStore() *EvaluationStore {
	return &EvaluationStore{
		records: make(map[string]domain.EvaluationRecord),
	}
}

func (s *EvaluationStore) Save(_ context.Context, rec *domain.EvaluationRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
		s.order = append(s.order, rec.ID)
	} else if _, ok := s.records[rec.ID]; !ok {
		return "", domain.ErrEvaluationNotFound
	}
	s.records[rec.ID] = cloneRecord(*rec)
	return rec.ID, nil
}

func (s *EvaluationStore) Get(_ context.Context, id string) (domain.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.EvaluationRecord{}, domain.ErrEvaluationNotFound
	}
	return cloneRecord(rec), nil
}

func (s *EvaluationStore) LatestByPlayer(_ context.Context, playerID string) (domain.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest, ok := s.latestLocked()[playerID]
	if !ok {
		return domain.EvaluationRecord{}, domain.ErrEvaluationNotFound
	}
	return cloneRecord(latest), nil
}

func (s *EvaluationStore) ListLatest(_ context.Context) ([]domain.EvaluationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := s.latestLocked()
	out := make([]domain.EvaluationRecord, 0, len(latest))
	for _, rec := range latest {
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

// latestLocked picks, per player, the record with the newest CreatedAt; ties go
// to the most recently created record.
func (s *EvaluationStore) latestLocked() map[string]domain.EvaluationRecord {
	latest := make(map[string]domain.EvaluationRecord)
	for _, id := range s.order {
		rec := s.records[id]
		current, ok := latest[rec.PlayerID]
		if !ok || !rec.CreatedAt.Before(current.CreatedAt) {
			latest[rec.PlayerID] = rec
		}
	}
	return latest
}

func cloneRecord(rec domain.EvaluationRecord) domain.EvaluationRecord {
	if rec.PerQuestion != nil {
		perQuestion := make([]domain.PerQuestionEvaluation, len(rec.PerQuestion))
		copy(perQuestion, rec.PerQuestion)
		rec.PerQuestion = perQuestion
	}
	return rec
}
