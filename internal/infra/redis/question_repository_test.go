package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"mindcoach-service/internal/domain"
	"mindcoach-service/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions()),
	}
	repo := NewQuestionRepository(client, loader, time.Minute)

	questions, err := repo.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists(QuestionsKey) {
		t.Fatalf("expected cache key to be set")
	}
	if ttl := mr.TTL(QuestionsKey); ttl < time.Minute {
		t.Fatalf("expected ttl of at least a minute, got %v", ttl)
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("list questions 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(cached) != len(questions) || cached[0].Options[0].Logic != "Composure" {
		t.Fatalf("expected full questions from cache, got %+v", cached)
	}
}

func TestQuestionRepositoryInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions()),
	}
	repo := NewQuestionRepository(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	_, _ = repo.ListQuestions(ctx)
	if err := repo.Invalidate(ctx); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(QuestionsKey) {
		t.Fatalf("expected cache key removed")
	}
	_, _ = repo.ListQuestions(ctx)
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestQuestionRepositoryIgnoresCorruptCache(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	_ = mr.Set(QuestionsKey, "{not json")

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions()),
	}
	repo := NewQuestionRepository(newClient(mr), loader, time.Minute)

	questions, err := repo.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if loader.calls != 1 || len(questions) != 1 {
		t.Fatalf("expected loader fallback, calls=%d len=%d", loader.calls, len(questions))
	}
}

type countingLoader struct {
	memory.QuestionLoader
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
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}

// invalidatingLoader simulates a question being written while a load is in flight.
type invalidatingLoader struct {
	memory.QuestionLoader
	repo  *QuestionRepository
	calls int
}

func (l *invalidatingLoader) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	l.calls++
	questions, err := l.QuestionLoader.LoadQuestions(ctx)
	if l.calls == 1 {
		if err := l.repo.Invalidate(ctx); err != nil {
			return nil, err
		}
	}
	return questions, err
}

func TestQuestionRepositorySkipsCacheWriteAfterInvalidate(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &invalidatingLoader{QuestionLoader: memory.NewStaticQuestionLoader(sampleQuestions())}
	repo := NewQuestionRepository(newClient(mr), loader, time.Minute)
	loader.repo = repo
	ctx := context.Background()

	if _, err := repo.ListQuestions(ctx); err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if mr.Exists(QuestionsKey) {
		t.Fatalf("expected stale load not to be cached")
	}

	if _, err := repo.ListQuestions(ctx); err != nil {
		t.Fatalf("list questions 2: %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("expected reload, loader calls=%d", loader.calls)
	}
	if !mr.Exists(QuestionsKey) {
		t.Fatalf("expected fresh load to be cached")
	}
}
