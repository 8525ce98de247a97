package redis

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"mindcoach-service/internal/domain"
	"mindcoach-service/internal/infra/memory"
)

const (
	// QuestionsKey holds the cached question set as a JSON array.
	QuestionsKey = "assessment:questions"
	// QuestionsVersionKey is bumped by Invalidate; loads started before a bump are not cached.
	QuestionsVersionKey = "assessment:questions:version"
)

var errStaleLoad = errors.New("question set changed during load")

// QuestionRepository caches the question set in Redis and falls back to a loader on cache miss.
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	if questions, ok := r.cached(ctx); ok {
		return questions, nil
	}

	result, err, _ := r.sf.Do(QuestionsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := r.cached(ctx); ok {
			return questions, nil
		}

		version, versionErr := r.version(ctx)

		questions, err := r.loader.LoadQuestions(ctx)
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(questions)
		if err == nil && versionErr == nil {
			// best-effort; a failed write only costs another load
			_ = r.store(ctx, version, payload)
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate deletes the cached set so every instance reloads.
func (r *QuestionRepository) Invalidate(ctx context.Context) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, QuestionsVersionKey)
		pipe.Del(ctx, QuestionsKey)
		return nil
	})
	return err
}

func (r *QuestionRepository) version(ctx context.Context) (int64, error) {
	v, err := r.client.Get(ctx, QuestionsVersionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// store writes payload only if no Invalidate happened since version was read.
func (r *QuestionRepository) store(ctx context.Context, version int64, payload []byte) error {
	return r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, QuestionsVersionKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, QuestionsKey, payload, r.ttlWithJitter())
			return nil
		})
		return err
	}, QuestionsVersionKey)
}

func (r *QuestionRepository) cached(ctx context.Context) ([]domain.Question, bool) {
	payload, err := r.client.Get(ctx, QuestionsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(payload, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
