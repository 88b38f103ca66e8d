package job

import "time"

// State identifies where a job currently sits in the generation pipeline.
type State string

const (
	StatePending          State = "pending"
	StateGeneratingScript State = "generating_script"
	StateGeneratingVideo  State = "generating_video"
	StateAddingCaptions   State = "adding_captions"
	StateComplete         State = "complete"
	StateError            State = "error"
)

// Terminal reports whether no further transitions can occur from s.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateError
}

// Record is the persisted state of one prompt-to-video job. The pipeline
// executor bound to the job id is the only writer; everything else reads.
type Record struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Status    State     `json:"status"`
	Progress  float64   `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	VideoURL  string    `json:"video_url,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// NewRecord returns a fresh pending record for the given prompt.
func NewRecord(id, prompt string) *Record {
	return &Record{
		ID:        id,
		Prompt:    prompt,
		Status:    StatePending,
		Progress:  0,
		CreatedAt: time.Now().UTC(),
	}
}

// SetProgress clamps p to [0, 1] before storing it. Every progress write
// goes through here so readers never observe an out-of-range value.
func (r *Record) SetProgress(p float64) {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	r.Progress = p
}

// Clone returns a copy that shares no memory with r.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
