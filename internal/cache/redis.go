package cache

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

// InitRedis connects Client when url is set. Both "redis://" URLs and bare
// host:port addresses are accepted. An empty url leaves Client nil so callers
// fall back to the in-process cache.
func InitRedis(ctx context.Context, url string) error {
	if url == "" {
		log.Println("REDIS_URL not set, using in-process cache")
		return nil
	}
	opts := &redis.Options{Addr: url}
	if strings.Contains(url, "://") {
		parsed, err := redis.ParseURL(url)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("connect to redis: %w", err)
	}
	Client = client
	log.Println("Connected to Redis")
	return nil
}
