package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"mindcoach-service/internal/domain"
)

// CompletionStore keeps daily plan progress in Redis.
// Layout: HSET daily:{playerID}:{date} {itemID} {CompletionItem JSON}
// Keys expire after the retention window.
type CompletionStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewCompletionStore(client *redis.Client, retention time.Duration) *CompletionStore {
	return &CompletionStore{client: client, retention: retention}
}

func (s *CompletionStore) Get(ctx context.Context, playerID, date string) (domain.DailyCompletion, bool, error) {
	fields, err := s.client.HGetAll(ctx, s.key(playerID, date)).Result()
	if err != nil {
		return domain.DailyCompletion{}, false, err
	}
	if len(fields) == 0 {
		return domain.DailyCompletion{}, false, nil
	}

	day := domain.DailyCompletion{PlayerID: playerID, Date: date}
	for itemID, raw := range fields {
		var item domain.CompletionItem
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return domain.DailyCompletion{}, false, fmt.Errorf("decode %s: %w", itemID, err)
		}
		item.ItemID = itemID
		day.Items = append(day.Items, item)
	}
	sort.Slice(day.Items, func(i, j int) bool {
		return day.Items[i].ItemID < day.Items[j].ItemID
	})
	return day, true, nil
}

func (s *CompletionStore) Put(ctx context.Context, day domain.DailyCompletion) error {
	key := s.key(day.PlayerID, day.Date)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	for _, item := range day.Items {
		payload, err := json.Marshal(item)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, key, item.ItemID, payload)
	}
	if s.retention > 0 {
		pipe.Expire(ctx, key, s.retention)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *CompletionStore) key(playerID, date string) string {
	return "daily:" + playerID + ":" + date
}
