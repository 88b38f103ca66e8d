package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"videoforge/internal/job"
	"videoforge/internal/jobstore"
)

// ErrEmptyPrompt rejects job creation with a blank prompt. Nothing is
// persisted when it is returned.
var ErrEmptyPrompt = errors.New("pipeline: prompt cannot be empty")

// Orchestrator is the entry point for the boundary layer: it creates jobs,
// hands each one to an executor goroutine, and serves record reads. It never
// interprets pipeline stages itself.
type Orchestrator struct {
	store    jobstore.Store
	executor *Executor
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

func NewOrchestrator(store jobstore.Store, executor *Executor, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:    store,
		executor: executor,
		logger:   logger,
	}
}

// CreateJob validates the prompt, persists a pending record, and starts the
// executor in the background. It returns the new job id immediately; the
// caller polls GetJob for progress.
func (o *Orchestrator) CreateJob(ctx context.Context, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	id := uuid.NewString()
	rec := job.NewRecord(id, prompt)
	if err := o.store.Put(ctx, rec); err != nil {
		return "", err
	}
	o.logger.Info().Str("job_id", id).Msg("pipeline: job created")

	// The executor outlives the request, so it runs on its own context.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.executor.Run(context.Background(), id)
	}()

	return id, nil
}

// GetJob returns the current record for id, or jobstore.ErrNotFound for ids
// that were never created or whose records have expired.
func (o *Orchestrator) GetJob(ctx context.Context, id string) (*job.Record, error) {
	return o.store.Get(ctx, id)
}

// StorageMode reports which storage backend is serving the process.
func (o *Orchestrator) StorageMode() jobstore.Mode {
	return o.store.Mode()
}

// Wait blocks until all running executors have reached a terminal state.
// Used on shutdown and in tests.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}
