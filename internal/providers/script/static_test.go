package script

import (
	"context"
	"strings"
	"testing"
)

func TestStaticGeneratesFiveScenes(t *testing.T) {
	scenes, err := NewStatic().Generate(context.Background(), "urban beekeeping")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(scenes) != 5 {
		t.Fatalf("len(scenes) = %d, want 5", len(scenes))
	}
	for i, sc := range scenes {
		if sc.Number != i+1 {
			t.Fatalf("scene %d numbered %d", i, sc.Number)
		}
		if n := len(strings.Fields(sc.Dialogue)); n != 18 {
			t.Fatalf("scene %d has %d words, want 18", sc.Number, n)
		}
		if sc.Visual == "" {
			t.Fatalf("scene %d has empty visual", sc.Number)
		}
	}
}

func TestNormalizeDialoguePadsAndTruncates(t *testing.T) {
	short := normalizeDialogue("only three words")
	if n := len(strings.Fields(short)); n != 18 {
		t.Fatalf("padded dialogue has %d words", n)
	}
	long := normalizeDialogue(strings.Repeat("word ", 30))
	if n := len(strings.Fields(long)); n != 18 {
		t.Fatalf("truncated dialogue has %d words", n)
	}
}
