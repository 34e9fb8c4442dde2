package data

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StreamVerifications receives one entry per submitted or auto-approved item.
const StreamVerifications = "raiinmaker.verifications"

// OpenRedis parses url and checks the server is reachable.
func OpenRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return rdb, nil
}

// PublishEvent appends payload to the verification stream.
func PublishEvent(ctx context.Context, rdb redis.Cmdable, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamVerifications,
		Values: payload,
	}).Result()
	return err
}

// StreamPublisher publishes verification events to Redis.
type StreamPublisher struct {
	RDB redis.Cmdable
}

func (p StreamPublisher) Publish(ctx context.Context, payload map[string]interface{}) error {
	return PublishEvent(ctx, p.RDB, payload)
}
