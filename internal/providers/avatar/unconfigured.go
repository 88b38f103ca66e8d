package avatar

import (
	"context"
	"errors"

	"videoforge/internal/providers/script"
)

// Unconfigured stands in when no HeyGen key is set. Jobs still enqueue and
// poll normally; they fail at the video stage with a clear message.
type Unconfigured struct{}

func NewUnconfigured() *Unconfigured {
	return &Unconfigured{}
}

func (u *Unconfigured) Synthesize(ctx context.Context, scenes []script.Scene) (*Video, error) {
	return nil, errors.New("HEYGEN_API_KEY is missing")
}

var _ Synthesizer = (*Unconfigured)(nil)
