package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"videoforge/internal/job"
)

// jobTTL is the durable retention window. Records may stop resolving after
// this much time since their last write; callers see that as ErrNotFound.
const jobTTL = 24 * time.Hour

// RedisStore keeps JSON-encoded records under job:<id> keys with a fixed
// expiry, so state survives process restarts but not indefinitely.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, rec *job.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal job %s: %w", rec.ID, err)
	}
	if err := s.client.SetEx(ctx, jobKey(rec.ID), data, jobTTL).Err(); err != nil {
		return fmt.Errorf("write job %s: %w", rec.ID, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*job.Record, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read job %s: %w", id, err)
	}
	var rec job.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &rec, nil
}

func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, jobKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("check job %s: %w", id, err)
	}
	return n > 0, nil
}

func (s *RedisStore) Mode() Mode {
	return ModeRedis
}

func jobKey(id string) string {
	return "job:" + id
}

var _ Store = (*RedisStore)(nil)
