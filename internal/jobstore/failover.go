package jobstore

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"videoforge/internal/job"
)

// Failover serves from the durable backend until it fails, then switches to
// the volatile backend for the remainder of the process lifetime. The switch
// is one-way and logged; it never mixes backends per key after degrading.
type Failover struct {
	durable  Store
	volatile Store
	degraded atomic.Bool
	logger   zerolog.Logger
}

func NewFailover(durable, volatile Store, logger zerolog.Logger) *Failover {
	return &Failover{durable: durable, volatile: volatile, logger: logger}
}

func (f *Failover) Put(ctx context.Context, rec *job.Record) error {
	if !f.degraded.Load() {
		err := f.durable.Put(ctx, rec)
		if err == nil {
			return nil
		}
		f.degrade(err)
	}
	return f.volatile.Put(ctx, rec)
}

func (f *Failover) Get(ctx context.Context, id string) (*job.Record, error) {
	if !f.degraded.Load() {
		rec, err := f.durable.Get(ctx, id)
		if err == nil || errors.Is(err, ErrNotFound) {
			return rec, err
		}
		f.degrade(err)
	}
	return f.volatile.Get(ctx, id)
}

func (f *Failover) Exists(ctx context.Context, id string) (bool, error) {
	if !f.degraded.Load() {
		ok, err := f.durable.Exists(ctx, id)
		if err == nil {
			return ok, nil
		}
		f.degrade(err)
	}
	return f.volatile.Exists(ctx, id)
}

// Mode reports the backend currently serving traffic.
func (f *Failover) Mode() Mode {
	if f.degraded.Load() {
		return f.volatile.Mode()
	}
	return f.durable.Mode()
}

func (f *Failover) degrade(cause error) {
	if f.degraded.CompareAndSwap(false, true) {
		f.logger.Warn().Err(cause).Msg("jobstore: durable backend failed, switching to in-memory storage")
	}
}

var _ Store = (*Failover)(nil)
