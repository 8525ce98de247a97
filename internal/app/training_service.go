package app

import (
	"context"
	"fmt"
	"time"

	"mindcoach-service/internal/domain"
	"mindcoach-service/internal/metrics"
)

// DateLayout is the calendar-day format used for daily plans.
const DateLayout = "2006-01-02"

// CompletionStore keeps per-day plan progress.
type CompletionStore interface {
	// Get returns the stored day; found is false when nothing was recorded yet.
	Get(ctx context.Context, playerID, date string) (domain.DailyCompletion, bool, error)
	Put(ctx context.Context, day domain.DailyCompletion) error
}

// DefaultActionPlan is the daily routine every player follows.
func DefaultActionPlan() []domain.ActionPlanItem {
	return []domain.ActionPlanItem{
		{
			ID:          "affirmation",
			Title:       "Affirmation Writing",
			Description: "Write today's affirmation by hand",
			Type:        domain.ActivityAffirmation,
		},
		{
			ID:          "camera",
			Title:       "Mirror Talk",
			Description: "Say your affirmations out loud to the camera",
			Type:        domain.ActivityCamera,
		},
		{
			ID:              "breathing",
			Title:           "Breathing Routine",
			Description:     "Box breathing to settle before training",
			Type:            domain.ActivityBreathing,
			DurationSeconds: 180,
		},
		{
			ID:              "visualization",
			Title:           "Visualization",
			Description:     "Picture your next innings ball by ball",
			Type:            domain.ActivityVisualization,
			DurationSeconds: 300,
		},
	}
}

// TrainingService tracks the daily mental-training plan.
type TrainingService struct {
	store CompletionStore
	plan  []domain.ActionPlanItem
	now   func() time.Time
}

func NewTrainingService(store CompletionStore) *TrainingService {
	return &TrainingService{
		store: store,
		plan:  DefaultActionPlan(),
		now:   time.Now,
	}
}

// SetClock is test-only for deterministic timestamps.
func (s *TrainingService) SetClock(now func() time.Time) {
	s.now = now
}

// ActionPlan returns a copy of the plan.
func (s *TrainingService) ActionPlan() []domain.ActionPlanItem {
	plan := make([]domain.ActionPlanItem, len(s.plan))
	copy(plan, s.plan)
	return plan
}

// Day returns every plan item for date in plan order, with stored progress applied.
func (s *TrainingService) Day(ctx context.Context, playerID, date string) (domain.DailyCompletion, error) {
	if err := validateDate(date); err != nil {
		return domain.DailyCompletion{}, err
	}
	stored, _, err := s.store.Get(ctx, playerID, date)
	if err != nil {
		return domain.DailyCompletion{}, fmt.Errorf("load day: %w", err)
	}
	return s.merge(playerID, date, stored), nil
}

// MarkItem records progress for one plan item and returns the updated day.
func (s *TrainingService) MarkItem(ctx context.Context, playerID, date, itemID string, completed bool, data string) (domain.DailyCompletion, error) {
	if err := validateDate(date); err != nil {
		return domain.DailyCompletion{}, err
	}
	if !s.inPlan(itemID) {
		return domain.DailyCompletion{}, fmt.Errorf("%w: %s", domain.ErrUnknownActivity, itemID)
	}

	stored, found, err := s.store.Get(ctx, playerID, date)
	if err != nil {
		return domain.DailyCompletion{}, fmt.Errorf("load day: %w", err)
	}
	if !found {
		stored = domain.DailyCompletion{PlayerID: playerID, Date: date}
	}

	item := domain.CompletionItem{ItemID: itemID, Completed: completed, Data: data}
	if completed {
		at := s.now().UTC()
		item.CompletedAt = &at
	}
	replaced := false
	for i := range stored.Items {
		if stored.Items[i].ItemID == itemID {
			stored.Items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		stored.Items = append(stored.Items, item)
	}

	if err := s.store.Put(ctx, stored); err != nil {
		return domain.DailyCompletion{}, fmt.Errorf("save day: %w", err)
	}
	metrics.ObserveTrainingItem(itemID, completed)
	return s.merge(playerID, date, stored), nil
}

func (s *TrainingService) merge(playerID, date string, stored domain.DailyCompletion) domain.DailyCompletion {
	byID := make(map[string]domain.CompletionItem, len(stored.Items))
	for _, item := range stored.Items {
		byID[item.ItemID] = item
	}

	day := domain.DailyCompletion{
		PlayerID: playerID,
		Date:     date,
		Items:    make([]domain.CompletionItem, 0, len(s.plan)),
	}
	for _, planned := range s.plan {
		item, ok := byID[planned.ID]
		if !ok {
			item = domain.CompletionItem{ItemID: planned.ID}
		}
		day.Items = append(day.Items, item)
	}
	return day
}

func (s *TrainingService) inPlan(itemID string) bool {
	for _, item := range s.plan {
		if item.ID == itemID {
			return true
		}
	}
	return false
}

func validateDate(date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", domain.ErrInvalidDate, date)
	}
	return nil
}
