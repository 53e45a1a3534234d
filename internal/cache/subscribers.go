package cache

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const subscribersKey = "twstock:telegram:subscribers"

// RedisSubscriberSet persists Telegram chat ids subscribed to watchlist
// summaries so they survive restarts.
type RedisSubscriberSet struct {
	client *redis.Client
	key    string
}

func NewRedisSubscriberSet(client *redis.Client) *RedisSubscriberSet {
	return &RedisSubscriberSet{client: client, key: subscribersKey}
}

func (s *RedisSubscriberSet) Add(ctx context.Context, chatID int64) error {
	if err := s.client.SAdd(ctx, s.key, chatID).Err(); err != nil {
		return fmt.Errorf("add subscriber %d: %w", chatID, err)
	}
	return nil
}

func (s *RedisSubscriberSet) Remove(ctx context.Context, chatID int64) error {
	if err := s.client.SRem(ctx, s.key, chatID).Err(); err != nil {
		return fmt.Errorf("remove subscriber %d: %w", chatID, err)
	}
	return nil
}

// Members skips entries that are not chat ids.
func (s *RedisSubscriberSet) Members(ctx context.Context) ([]int64, error) {
	raw, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	out := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}
