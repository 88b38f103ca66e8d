// Package pipeline drives jobs through script generation, avatar video
// synthesis, and caption burn-in, and owns the job state machine.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"videoforge/internal/job"
	"videoforge/internal/jobstore"
	"videoforge/internal/providers/avatar"
	"videoforge/internal/providers/caption"
	"videoforge/internal/providers/script"
)

// Executor runs one job through the pipeline stages. It is the sole writer
// of the job's record: each transition is a load-mutate-put of the full
// record, so readers only ever observe whole states.
type Executor struct {
	store    jobstore.Store
	script   script.Generator
	avatar   avatar.Synthesizer
	captions caption.Burner
	logger   zerolog.Logger
}

func NewExecutor(store jobstore.Store, scriptGen script.Generator, synth avatar.Synthesizer, burner caption.Burner, logger zerolog.Logger) *Executor {
	return &Executor{
		store:    store,
		script:   scriptGen,
		avatar:   synth,
		captions: burner,
		logger:   logger,
	}
}

// Progress checkpoints per completed stage.
const (
	progressScript   = 0.0
	progressVideo    = 0.3
	progressCaptions = 0.8
	progressDone     = 1.0
)

// Run executes the full pipeline for jobID. It never returns an error:
// every failure, including a panic in a provider, ends as a terminal error
// record so the job cannot silently disappear.
func (e *Executor) Run(ctx context.Context, jobID string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error().Str("job_id", jobID).Interface("panic", r).Msg("pipeline: executor panicked")
			e.fail(ctx, jobID, fmt.Errorf("internal error: %v", r))
		}
	}()

	rec, err := e.store.Get(ctx, jobID)
	if err != nil {
		e.logger.Error().Err(err).Str("job_id", jobID).Msg("pipeline: job record unavailable")
		return
	}
	prompt := rec.Prompt

	if err := e.advance(ctx, jobID, job.StateGeneratingScript, progressScript); err != nil {
		e.fail(ctx, jobID, err)
		return
	}
	scenes, err := e.script.Generate(ctx, prompt)
	if err != nil {
		e.fail(ctx, jobID, fmt.Errorf("script generation: %w", err))
		return
	}
	e.logger.Debug().Str("job_id", jobID).Int("scenes", len(scenes)).Msg("pipeline: script ready")

	if err := e.advance(ctx, jobID, job.StateGeneratingVideo, progressVideo); err != nil {
		e.fail(ctx, jobID, err)
		return
	}
	video, err := e.avatar.Synthesize(ctx, scenes)
	if err != nil {
		e.fail(ctx, jobID, fmt.Errorf("video generation: %w", err))
		return
	}
	e.logger.Debug().Str("job_id", jobID).Str("video_url", video.URL).Msg("pipeline: video rendered")

	if err := e.advance(ctx, jobID, job.StateAddingCaptions, progressCaptions); err != nil {
		e.fail(ctx, jobID, err)
		return
	}
	finalURL, err := e.captions.Burn(ctx, video.URL)
	if err != nil {
		e.fail(ctx, jobID, fmt.Errorf("caption burn-in: %w", err))
		return
	}

	if err := e.complete(ctx, jobID, finalURL); err != nil {
		e.logger.Error().Err(err).Str("job_id", jobID).Msg("pipeline: failed to persist completion")
		return
	}
	e.logger.Info().Str("job_id", jobID).Str("video_url", finalURL).Msg("pipeline: job complete")
}

// advance moves the job to a non-terminal state. Progress only moves
// forward; a checkpoint below the current value is kept as-is.
func (e *Executor) advance(ctx context.Context, jobID string, state job.State, progress float64) error {
	return e.update(ctx, jobID, func(rec *job.Record) {
		rec.Status = state
		if progress > rec.Progress {
			rec.SetProgress(progress)
		}
	})
}

func (e *Executor) complete(ctx context.Context, jobID, videoURL string) error {
	return e.update(ctx, jobID, func(rec *job.Record) {
		rec.Status = job.StateComplete
		rec.SetProgress(progressDone)
		rec.VideoURL = videoURL
		rec.Error = ""
	})
}

// fail records the terminal error state. Progress stays where the job got
// to; the message tells the poller which stage gave up.
func (e *Executor) fail(ctx context.Context, jobID string, cause error) {
	e.logger.Warn().Err(cause).Str("job_id", jobID).Msg("pipeline: job failed")
	err := e.update(ctx, jobID, func(rec *job.Record) {
		rec.Status = job.StateError
		rec.Error = cause.Error()
		rec.VideoURL = ""
	})
	if err != nil {
		e.logger.Error().Err(err).Str("job_id", jobID).Msg("pipeline: failed to persist error state")
	}
}

func (e *Executor) update(ctx context.Context, jobID string, mutate func(*job.Record)) error {
	rec, err := e.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			return fmt.Errorf("job %s vanished from storage: %w", jobID, err)
		}
		return err
	}
	mutate(rec)
	return e.store.Put(ctx, rec)
}
