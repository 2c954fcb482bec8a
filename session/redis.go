package session

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the session under session:<profile>. A zero TTL never
// expires.
type RedisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, profile string, ttl time.Duration) *RedisStore {
	if client == nil {
		panic("session.NewRedisStore: client is nil")
	}
	if profile == "" {
		profile = "default"
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, key: "session:" + profile, ttl: ttl}
}

func (r *RedisStore) Load(ctx context.Context) (State, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, nil
	}
	if err != nil {
		return State{}, err
	}
	var st State
	if err := sonic.Unmarshal(raw, &st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (r *RedisStore) Save(ctx context.Context, st State) error {
	raw, err := sonic.Marshal(st)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key, raw, r.ttl).Err()
}

func (r *RedisStore) Clear(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}
