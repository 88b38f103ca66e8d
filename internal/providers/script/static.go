package script

import (
	"context"
	"fmt"
	"strings"
)

// Static produces a deterministic script templated on the prompt. It serves
// two roles: the provider of last resort when no Gemini key is configured,
// and the fallback the Gemini provider chains to when the API misbehaves.
type Static struct{}

func NewStatic() *Static {
	return &Static{}
}

func (s *Static) Generate(ctx context.Context, prompt string) ([]Scene, error) {
	dialogues := []string{
		fmt.Sprintf("Let's explore %s and discover what makes it truly fascinating for millions around the world today.", prompt),
		fmt.Sprintf("Understanding %s requires looking at how it's evolved and where it's headed in the coming years ahead.", prompt),
		fmt.Sprintf("What makes %s so remarkable isn't just what it is but how it's changing lives everywhere right now.", prompt),
		fmt.Sprintf("From its origins to its current impact %s continues to shape our world in unexpected and powerful ways.", prompt),
		fmt.Sprintf("The future of %s holds incredible possibilities that we're only beginning to understand and experience fully today.", prompt),
	}
	visuals := []string{
		"Dynamic opening shot with engaging visuals and movement",
		"Contextual imagery showing historical or foundational elements",
		"Core content visualization with detailed close-ups and information",
		"Impact shots showing real-world effects and transformations",
		"Closing scene with forward-looking perspective and hope",
	}

	scenes := make([]Scene, 0, sceneCount)
	for i := 0; i < sceneCount; i++ {
		scenes = append(scenes, Scene{
			Number:   i + 1,
			Visual:   visuals[i],
			Dialogue: normalizeDialogue(dialogues[i]),
		})
	}
	return scenes, nil
}

// normalizeDialogue pads or truncates dialogue to exactly sceneWords words.
func normalizeDialogue(dialogue string) string {
	words := strings.Fields(dialogue)
	for len(words) < sceneWords {
		words = append(words, "...")
	}
	return strings.Join(words[:sceneWords], " ")
}

var _ Generator = (*Static)(nil)
