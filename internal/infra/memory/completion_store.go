package memory

import (
	"context"
	"sync"

	"mindcoach-service/internal/domain"
)

// CompletionStore is an in-memory implementation of app.CompletionStore.
type CompletionStore struct {
	mu   sync.RWMutex
	days map[string]domain.DailyCompletion
}

func NewCompletionStore() *CompletionStore {
	return &CompletionStore{
		days: make(map[string]domain.DailyCompletion),
	}
}

func (s *CompletionStore) Get(_ context.Context, playerID, date string) (domain.DailyCompletion, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	day, ok := s.days[dayKey(playerID, date)]
	if !ok {
		return domain.DailyCompletion{}, false, nil
	}
	items := make([]domain.CompletionItem, len(day.Items))
	copy(items, day.Items)
	day.Items = items
	return day, true, nil
}

func (s *CompletionStore) Put(_ context.Context, day domain.DailyCompletion) error {
	items := make([]domain.CompletionItem, len(day.Items))
	copy(items, day.Items)
	day.Items = items

	s.mu.Lock()
	defer s.mu.Unlock()
	s.days[dayKey(day.PlayerID, day.Date)] = day
	return nil
}

func dayKey(playerID, date string) string {
	return playerID + "|" + date
}
