package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"videoforge/internal/http/handlers"
	"videoforge/internal/http/httpapi"
	"videoforge/internal/jobstore"
	"videoforge/internal/pipeline"
	"videoforge/internal/providers/avatar"
	"videoforge/internal/providers/script"
)

type stubScript struct{}

func (stubScript) Generate(ctx context.Context, prompt string) ([]script.Scene, error) {
	return []script.Scene{{Number: 1, Visual: "v", Dialogue: "d"}}, nil
}

type stubAvatar struct {
	err error
}

func (s stubAvatar) Synthesize(ctx context.Context, scenes []script.Scene) (*avatar.Video, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &avatar.Video{URL: "https://cdn.example.com/final.mp4", Duration: 30}, nil
}

type stubBurner struct{}

func (stubBurner) Burn(ctx context.Context, videoURL string) (string, error) {
	return videoURL, nil
}

func newTestServer(t *testing.T, synth stubAvatar) (*httptest.Server, *pipeline.Orchestrator) {
	t.Helper()
	store := jobstore.NewMemoryStore()
	executor := pipeline.NewExecutor(store, stubScript{}, synth, stubBurner{}, zerolog.Nop())
	orchestrator := pipeline.NewOrchestrator(store, executor, zerolog.Nop())
	app := handlers.NewApp(orchestrator, zerolog.Nop())
	srv := httptest.NewServer(httpapi.NewRouter(app, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, orchestrator
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestGenerateAndPollToCompletion(t *testing.T) {
	srv, orchestrator := newTestServer(t, stubAvatar{})

	resp, err := http.Post(srv.URL+"/generate", "application/json", strings.NewReader(`{"prompt":"A coffee shop owner discovers AI"}`))
	if err != nil {
		t.Fatalf("POST /generate: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var created struct {
		JobID string `json:"job_id"`
	}
	decodeBody(t, resp, &created)
	if created.JobID == "" {
		t.Fatal("empty job_id")
	}

	orchestrator.Wait()

	resp, err = http.Get(srv.URL + "/status/" + created.JobID)
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	var status struct {
		JobID    string  `json:"job_id"`
		Status   string  `json:"status"`
		Progress float64 `json:"progress"`
	}
	decodeBody(t, resp, &status)
	if status.Status != "complete" || status.Progress != 1.0 {
		t.Fatalf("status = %+v", status)
	}

	resp, err = http.Get(srv.URL + "/download/" + created.JobID)
	if err != nil {
		t.Fatalf("GET /download: %v", err)
	}
	var download struct {
		Status   string `json:"status"`
		VideoURL string `json:"video_url"`
		Message  string `json:"message"`
	}
	decodeBody(t, resp, &download)
	if download.VideoURL != "https://cdn.example.com/final.mp4" {
		t.Fatalf("video_url = %q", download.VideoURL)
	}
	if download.Message != "" {
		t.Fatalf("message = %q on completed job", download.Message)
	}
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	srv, _ := newTestServer(t, stubAvatar{})

	resp, err := http.Post(srv.URL+"/generate", "application/json", strings.NewReader(`{"prompt":"   "}`))
	if err != nil {
		t.Fatalf("POST /generate: %v", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStatusUnknownJobIs404(t *testing.T) {
	srv, _ := newTestServer(t, stubAvatar{})

	for _, path := range []string{"/status/nope", "/download/nope"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("GET %s status = %d, want 404", path, resp.StatusCode)
		}
		_ = resp.Body.Close()
	}
}

func TestDownloadNotReadyAndFailed(t *testing.T) {
	srv, orchestrator := newTestServer(t, stubAvatar{err: errors.New("synth offline")})

	resp, err := http.Post(srv.URL+"/generate", "application/json", strings.NewReader(`{"prompt":"doomed"}`))
	if err != nil {
		t.Fatalf("POST /generate: %v", err)
	}
	var created struct {
		JobID string `json:"job_id"`
	}
	decodeBody(t, resp, &created)

	orchestrator.Wait()

	resp, err = http.Get(srv.URL + "/download/" + created.JobID)
	if err != nil {
		t.Fatalf("GET /download: %v", err)
	}
	var download struct {
		Status   string `json:"status"`
		VideoURL string `json:"video_url"`
		Message  string `json:"message"`
	}
	decodeBody(t, resp, &download)
	if download.Status != "error" {
		t.Fatalf("status = %q, want error", download.Status)
	}
	if download.VideoURL != "" {
		t.Fatalf("video_url = %q on failed job", download.VideoURL)
	}
	if !strings.Contains(download.Message, "synth offline") {
		t.Fatalf("message = %q", download.Message)
	}
}

func TestHealthReportsStorageMode(t *testing.T) {
	srv, _ := newTestServer(t, stubAvatar{})

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	var health struct {
		Status  string `json:"status"`
		Storage string `json:"storage"`
	}
	decodeBody(t, resp, &health)
	if health.Status != "ok" || health.Storage != "memory" {
		t.Fatalf("health = %+v", health)
	}
}
