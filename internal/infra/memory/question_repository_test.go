package memory

import (
	"context"
	"testing"
	"time"

	"mindcoach-service/internal/domain"
)

func TestQuestionRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(sampleQuestions()),
	}
	repo := NewQuestionRepository(loader, time.Minute)

	if _, err := repo.ListQuestions(context.Background()); err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	questions, err := repo.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("list questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
}

func TestQuestionRepositoryExpires(t *testing.T) {
	loader := &countingLoader{
		QuestionLoader: NewStaticQuestionLoader(sampleQuestions()),
	}
	repo := NewQuestionRepository(loader, time.Minute)
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	repo.clock = func() time.Time { return now }

	_, _ = repo.ListQuestions(context.Background())
	now = now.Add(2 * time.Minute)
	_, _ = repo.ListQuestions(context.Background())

	if loader.calls != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls)
	}
}

func TestQuestionRepositoryInvalidateReloads(t *testing.T) {
	static := NewStaticQuestionLoader(sampleQuestions())
	loader := &countingLoader{QuestionLoader: static}
	repo := NewQuestionRepository(loader, time.Hour)
	ctx := context.Background()

	_, _ = repo.ListQuestions(ctx)
	if err := static.SaveQuestion(ctx, domain.Question{
		ID:      "q3",
		Order:   3,
		Options: []domain.Option{{ID: "A", Mark: 1}},
	}); err != nil {
		t.Fatalf("save question: %v", err)
	}
	if err := repo.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	questions, err := repo.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if loader.calls != 2 || len(questions) != 3 {
		t.Fatalf("expected reload with 3 questions, calls=%d len=%d", loader.calls, len(questions))
	}
}

func TestStaticQuestionLoaderReplacesByID(t *testing.T) {
	loader := NewStaticQuestionLoader(sampleQuestions())
	ctx := context.Background()

	updated := sampleQuestions()[0]
	updated.Prompt = "I stay calm when the required rate climbs"
	if err := loader.SaveQuestion(ctx, updated); err != nil {
		t.Fatalf("save question: %v", err)
	}

	questions, _ := loader.LoadQuestions(ctx)
	if len(questions) != 2 {
		t.Fatalf("expected replace, got %d questions", len(questions))
	}
	if questions[0].Prompt != updated.Prompt {
		t.Fatalf("expected updated prompt, got %q", questions[0].Prompt)
	}
}

type countingLoader struct {
	QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx)
}

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:     "q1",
			Prompt: "I stay calm when chasing a big total",
			Order:  1,
			Options: []domain.Option{
				{ID: "A", Text: "Always", Mark: 2, Logic: "Composure"},
				{ID: "B", Text: "Never", Mark: -1, Logic: "Pressure Anxiety"},
			},
		},
		{
			ID:     "q2",
			Prompt: "I replay my dismissals for days",
			Order:  2,
			Options: []domain.Option{
				{ID: "A", Text: "Often", Mark: -2, Logic: "Rumination"},
				{ID: "B", Text: "Rarely", Mark: 1, Logic: "Resilience"},
			},
		},
	}
}
