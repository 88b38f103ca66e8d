package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"videoforge/internal/job"
	"videoforge/internal/jobstore"
	"videoforge/internal/pipeline"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	JobID string `json:"job_id"`
}

type statusResponse struct {
	JobID     string    `json:"job_id"`
	Status    job.State `json:"status"`
	Progress  float64   `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	Error     string    `json:"error,omitempty"`
}

type downloadResponse struct {
	JobID    string    `json:"job_id"`
	Status   job.State `json:"status"`
	VideoURL string    `json:"video_url,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// Generate enqueues a new video generation job and returns its id. The
// pipeline runs in the background; callers poll Status for progress.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	id, err := a.Orchestrator.CreateJob(r.Context(), req.Prompt)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyPrompt) {
			a.error(w, http.StatusBadRequest, "bad_request", "Prompt cannot be empty")
			return
		}
		a.Logger.Error().Err(err).Msg("handlers: failed to create job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create job")
		return
	}
	a.json(w, http.StatusOK, generateResponse{JobID: id})
}

// Status reports the current state and progress of a job.
func (a *App) Status(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, statusResponse{
		JobID:     rec.ID,
		Status:    rec.Status,
		Progress:  rec.Progress,
		CreatedAt: rec.CreatedAt,
		Error:     rec.Error,
	})
}

// Download returns the finished video reference once a job completes; for
// unfinished or failed jobs it explains why there is nothing to fetch yet.
func (a *App) Download(w http.ResponseWriter, r *http.Request) {
	rec, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	switch rec.Status {
	case job.StateComplete:
		a.json(w, http.StatusOK, downloadResponse{JobID: rec.ID, Status: rec.Status, VideoURL: rec.VideoURL})
	case job.StateError:
		a.json(w, http.StatusOK, downloadResponse{JobID: rec.ID, Status: rec.Status, Message: rec.Error})
	default:
		a.json(w, http.StatusOK, downloadResponse{
			JobID:   rec.ID,
			Status:  rec.Status,
			Message: "Video not ready yet. Check the status endpoint for progress.",
		})
	}
}

func (a *App) loadJob(w http.ResponseWriter, r *http.Request) (*job.Record, bool) {
	id := chi.URLParam(r, "job_id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return nil, false
	}
	rec, err := a.Orchestrator.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "Job not found")
			return nil, false
		}
		a.Logger.Error().Err(err).Str("job_id", id).Msg("handlers: failed to load job")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return nil, false
	}
	return rec, true
}
