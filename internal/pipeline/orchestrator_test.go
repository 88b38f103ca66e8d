package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"videoforge/internal/job"
	"videoforge/internal/jobstore"
	"videoforge/internal/providers/avatar"
	"videoforge/internal/providers/script"
)

type countingStore struct {
	jobstore.Store
	puts atomic.Int32
}

func (s *countingStore) Put(ctx context.Context, rec *job.Record) error {
	s.puts.Add(1)
	return s.Store.Put(ctx, rec)
}

func newTestOrchestrator(store jobstore.Store, s fakeScript, a fakeAvatar, b fakeBurner) *Orchestrator {
	e := NewExecutor(store, s, a, b, zerolog.Nop())
	return NewOrchestrator(store, e, zerolog.Nop())
}

func TestCreateJobReturnsPendingRecord(t *testing.T) {
	ctx := context.Background()
	store := jobstore.NewMemoryStore()

	// Hold the executor at the first stage so the immediate read observes
	// the freshly created record.
	release := make(chan struct{})
	o := newTestOrchestrator(store,
		fakeScript{generate: func(ctx context.Context, prompt string) ([]script.Scene, error) {
			<-release
			return []script.Scene{{Number: 1}}, nil
		}},
		fakeAvatar{}, fakeBurner{})

	id, err := o.CreateJob(ctx, "A coffee shop owner discovers AI")
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	if id == "" {
		t.Fatal("CreateJob returned empty id")
	}

	rec, err := o.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if rec.Status != job.StatePending && rec.Status != job.StateGeneratingScript {
		t.Fatalf("Status = %q immediately after creation", rec.Status)
	}
	if rec.Progress != 0.0 {
		t.Fatalf("Progress = %v, want 0.0", rec.Progress)
	}
	if rec.Prompt != "A coffee shop owner discovers AI" {
		t.Fatalf("Prompt = %q", rec.Prompt)
	}

	close(release)
	o.Wait()

	final, err := o.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if final.Status != job.StateComplete || final.Progress != 1.0 || final.VideoURL == "" {
		t.Fatalf("final record = %+v", final)
	}
}

func TestCreateJobRejectsEmptyPrompt(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{Store: jobstore.NewMemoryStore()}
	o := newTestOrchestrator(store, fakeScript{}, fakeAvatar{}, fakeBurner{})

	for _, prompt := range []string{"", "   ", "\n\t"} {
		if _, err := o.CreateJob(ctx, prompt); !errors.Is(err, ErrEmptyPrompt) {
			t.Fatalf("CreateJob(%q) err = %v, want ErrEmptyPrompt", prompt, err)
		}
	}
	if n := store.puts.Load(); n != 0 {
		t.Fatalf("%d records written for rejected prompts", n)
	}
}

func TestGetJobUnknownIDReturnsNotFound(t *testing.T) {
	o := newTestOrchestrator(jobstore.NewMemoryStore(), fakeScript{}, fakeAvatar{}, fakeBurner{})
	if _, err := o.GetJob(context.Background(), "never-issued"); !errors.Is(err, jobstore.ErrNotFound) {
		t.Fatalf("GetJob err = %v, want ErrNotFound", err)
	}
}

func TestGetJobIsIdempotent(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator(jobstore.NewMemoryStore(), fakeScript{}, fakeAvatar{}, fakeBurner{})
	id, err := o.CreateJob(ctx, "idempotence")
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	o.Wait()

	first, err := o.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	second, err := o.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if *first != *second {
		t.Fatalf("repeated reads differ: %+v vs %+v", first, second)
	}
}

func TestFailedJobVisibleViaPolling(t *testing.T) {
	ctx := context.Background()
	o := newTestOrchestrator(jobstore.NewMemoryStore(), fakeScript{},
		fakeAvatar{synthesize: func(ctx context.Context, scenes []script.Scene) (*avatar.Video, error) {
			return nil, errors.New("avatar service down")
		}},
		fakeBurner{})

	id, err := o.CreateJob(ctx, "doomed job")
	if err != nil {
		t.Fatalf("CreateJob returned error: %v", err)
	}
	o.Wait()

	rec, err := o.GetJob(ctx, id)
	if err != nil {
		t.Fatalf("GetJob returned error: %v", err)
	}
	if rec.Status != job.StateError {
		t.Fatalf("Status = %q, want %q", rec.Status, job.StateError)
	}
	if rec.Error == "" || rec.VideoURL != "" {
		t.Fatalf("terminal invariant violated: %+v", rec)
	}
}

func TestConcurrentJobsStayIsolated(t *testing.T) {
	ctx := context.Background()
	store := jobstore.NewMemoryStore()

	// Provider output is derived from the prompt so cross-job leaks are
	// detectable in the final records.
	o := newTestOrchestrator(store,
		fakeScript{generate: func(ctx context.Context, prompt string) ([]script.Scene, error) {
			return []script.Scene{{Number: 1, Dialogue: prompt}}, nil
		}},
		fakeAvatar{synthesize: func(ctx context.Context, scenes []script.Scene) (*avatar.Video, error) {
			return &avatar.Video{URL: "https://cdn.example.com/" + scenes[0].Dialogue + ".mp4"}, nil
		}},
		fakeBurner{burn: func(ctx context.Context, url string) (string, error) {
			return url, nil
		}})

	const n = 50
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := o.CreateJob(ctx, fmt.Sprintf("prompt-%d", i))
			if err != nil {
				t.Errorf("CreateJob(%d) returned error: %v", i, err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()
	o.Wait()

	seen := make(map[string]struct{}, n)
	for i, id := range ids {
		if id == "" {
			t.Fatalf("job %d has no id", i)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}

		rec, err := o.GetJob(ctx, id)
		if err != nil {
			t.Fatalf("GetJob(%s) returned error: %v", id, err)
		}
		if !rec.Status.Terminal() {
			t.Fatalf("job %s did not reach a terminal state: %q", id, rec.Status)
		}
		wantPrompt := fmt.Sprintf("prompt-%d", i)
		if rec.Prompt != wantPrompt {
			t.Fatalf("job %s prompt = %q, want %q", id, rec.Prompt, wantPrompt)
		}
		wantURL := "https://cdn.example.com/" + wantPrompt + ".mp4"
		if rec.VideoURL != wantURL {
			t.Fatalf("job %s video = %q, want %q", id, rec.VideoURL, wantURL)
		}
	}
}

func TestStorageModeIsReported(t *testing.T) {
	o := newTestOrchestrator(jobstore.NewMemoryStore(), fakeScript{}, fakeAvatar{}, fakeBurner{})
	if m := o.StorageMode(); m != jobstore.ModeMemory {
		t.Fatalf("StorageMode = %q, want %q", m, jobstore.ModeMemory)
	}
}
