// Package jobstore persists job records. The durable implementation keeps
// records in Redis with a fixed expiry; an in-process map serves as the
// degraded fallback when Redis is unreachable. The backend is chosen once
// per process and only fails over on unavailability, never per key.
package jobstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"videoforge/internal/job"
)

// ErrNotFound is returned when no record exists for an id, including ids
// whose records have expired out of the durable backend.
var ErrNotFound = errors.New("jobstore: job not found")

// Mode names the backend currently serving reads and writes.
type Mode string

const (
	ModeRedis  Mode = "redis"
	ModeMemory Mode = "memory"
)

// Store is the persistence contract shared by all backends. Put replaces the
// whole record atomically with respect to concurrent Put/Get on the same id.
type Store interface {
	Put(ctx context.Context, rec *job.Record) error
	Get(ctx context.Context, id string) (*job.Record, error)
	Exists(ctx context.Context, id string) (bool, error)
	Mode() Mode
}

const openPingTimeout = 2 * time.Second

// Open selects the backend for the process lifetime. It tries the Redis
// target first; if the connection cannot be established the volatile memory
// store is used instead, and the choice is logged so operators can tell the
// service is running degraded.
func Open(ctx context.Context, redisURL string, logger zerolog.Logger) Store {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn().Err(err).Str("redis_url", redisURL).Msg("jobstore: invalid redis url, using in-memory storage")
		return NewMemoryStore()
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, openPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", opts.Addr).Msg("jobstore: redis unreachable, using in-memory storage")
		_ = client.Close()
		return NewMemoryStore()
	}

	logger.Info().Str("addr", opts.Addr).Msg("jobstore: connected to redis")
	return NewFailover(NewRedisStore(client), NewMemoryStore(), logger)
}
