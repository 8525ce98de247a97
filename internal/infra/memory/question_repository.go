package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"mindcoach-service/internal/domain"
)

// QuestionLoader fetches the question set from a backing store (e.g., document DB).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionRepository caches the question set with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu         sync.RWMutex
	cached     []domain.Question
	expiresAt  time.Time
	loaded     bool
	generation uint64
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := r.fresh(r.clock()); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do("questions", func() (interface{}, error) {
		now := r.clock()
		if questions, ok := r.fresh(now); ok {
			return questions, nil
		}

		r.mu.RLock()
		gen := r.generation
		r.mu.RUnlock()

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		// an Invalidate during the load means the result may already be stale
		if gen == r.generation {
			r.cached = questions
			r.expiresAt = now.Add(r.ttlWithJitter())
			r.loaded = true
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached set.
func (r *QuestionRepository) Invalidate(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = nil
	r.loaded = false
	r.generation++
	return nil
}

func (r *QuestionRepository) fresh(now time.Time) ([]domain.Question, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.loaded && r.expiresAt.After(now) {
		return r.cached, true
	}
	return nil, false
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticQuestionLoader is a simple loader backed by an in-memory slice (useful for tests/demos).
// It also accepts authored questions, replacing any with the same id.
type StaticQuestionLoader struct {
	mu        sync.RWMutex
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	copied := make([]domain.Question, len(questions))
	copy(copied, questions)
	return &StaticQuestionLoader{questions: copied}
}

func (l *StaticQuestionLoader) LoadQuestions(_ context.Context) ([]domain.Question, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	questions := make([]domain.Question, len(l.questions))
	copy(questions, l.questions)
	return questions, nil
}

func (l *StaticQuestionLoader) SaveQuestion(_ context.Context, q domain.Question) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.questions {
		if l.questions[i].ID == q.ID {
			l.questions[i] = q
			return nil
		}
	}
	l.questions = append(l.questions, q)
	return nil
}
