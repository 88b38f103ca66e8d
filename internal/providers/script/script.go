// Package script turns a user prompt into a structured five-scene narration.
package script

import "context"

// Scene is one beat of the narration: what the viewer sees and the exact
// dialogue the avatar speaks. Dialogue is normalized to sceneWords words so
// every scene lands close to six seconds of speech.
type Scene struct {
	Number   int    `json:"scene_number"`
	Visual   string `json:"visual_description"`
	Dialogue string `json:"dialogue"`
}

// Generator produces an ordered scene list for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) ([]Scene, error)
}

const (
	sceneCount = 5
	sceneWords = 18
)
