package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"interview-backend/internal/candidates"
)

// Redis stores the snapshot as a single string value.
type Redis struct {
	Client *redis.Client
	Key    string
}

// NewRedis returns a persister using key "interview:root".
func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client, Key: "interview:" + RootKey}
}

// DialRedis parses a redis:// URL and verifies the server is reachable.
func DialRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *Redis) Name() string { return "redis" }

func (r *Redis) Load(ctx context.Context) (candidates.Snapshot, bool, error) {
	body, err := r.Client.Get(ctx, r.Key).Bytes()
	if errors.Is(err, redis.Nil) {
		return candidates.EmptySnapshot(), false, nil
	}
	if err != nil {
		return candidates.Snapshot{}, false, fmt.Errorf("redis get %s: %w", r.Key, err)
	}
	snap, err := decode(body)
	if err != nil {
		return candidates.Snapshot{}, false, err
	}
	return snap, true, nil
}

func (r *Redis) Save(ctx context.Context, snap candidates.Snapshot) error {
	body, err := encode(snap)
	if err != nil {
		return err
	}
	if err := r.Client.Set(ctx, r.Key, body, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.Key, err)
	}
	return nil
}

var _ Persister = (*Redis)(nil)
