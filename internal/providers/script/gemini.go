package script

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type GeminiOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Fallback   Generator
}

// Gemini asks the Gemini API for a strictly-JSON five-scene documentary
// script. Transport failures, non-2xx responses, and unparseable output all
// route to the fallback generator rather than failing the pipeline.
type Gemini struct {
	apiKey   string
	model    string
	baseURL  string
	client   *http.Client
	fallback Generator
}

const geminiDefaultTimeout = 60 * time.Second

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type geminiScriptPayload struct {
	Scenes []Scene `json:"scenes"`
}

func NewGemini(opts GeminiOptions) (*Gemini, error) {
	if opts.APIKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "gemini-2.0-flash"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiDefaultTimeout}
	}
	fallback := opts.Fallback
	if fallback == nil {
		fallback = NewStatic()
	}
	return &Gemini{
		apiKey:   opts.APIKey,
		model:    model,
		baseURL:  baseURL,
		client:   client,
		fallback: fallback,
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string) ([]Scene, error) {
	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{{Text: buildScriptPrompt(prompt)}},
		}},
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     0.7,
			MaxOutputTokens: 2048,
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return g.fallback.Generate(ctx, prompt)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), &buf)
	if err != nil {
		return g.fallback.Generate(ctx, prompt)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return g.fallback.Generate(ctx, prompt)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return g.fallback.Generate(ctx, prompt)
	}
	var out geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return g.fallback.Generate(ctx, prompt)
	}
	text := extractText(out)
	if text == "" {
		return g.fallback.Generate(ctx, prompt)
	}
	scenes, err := parseScenes(text)
	if err != nil {
		return g.fallback.Generate(ctx, prompt)
	}
	return scenes, nil
}

func (g *Gemini) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
}

func extractText(resp geminiResponse) string {
	for _, cand := range resp.Candidates {
		for _, part := range cand.Content.Parts {
			if strings.TrimSpace(part.Text) != "" {
				return part.Text
			}
		}
	}
	return ""
}

func parseScenes(raw string) ([]Scene, error) {
	cleaned := extractJSONFragment(raw)
	if cleaned == "" {
		return nil, errors.New("empty payload")
	}
	var payload geminiScriptPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return nil, err
	}
	if len(payload.Scenes) != sceneCount {
		return nil, fmt.Errorf("expected %d scenes, got %d", sceneCount, len(payload.Scenes))
	}
	scenes := make([]Scene, 0, sceneCount)
	for i, sc := range payload.Scenes {
		if sc.Number == 0 {
			sc.Number = i + 1
		}
		if strings.TrimSpace(sc.Visual) == "" {
			sc.Visual = fmt.Sprintf("Scene %d", i+1)
		}
		sc.Dialogue = normalizeDialogue(sc.Dialogue)
		scenes = append(scenes, sc)
	}
	return scenes, nil
}

func buildScriptPrompt(prompt string) string {
	sb := &strings.Builder{}
	sb.WriteString("You are an expert documentary scriptwriter creating a professional 30-second video narration. ")
	sb.WriteString("Return ONLY valid JSON matching this schema, no markdown and no code fences: ")
	sb.WriteString(`{"scenes":[{"scene_number":1,"visual_description":"descriptive text in present tense","dialogue":"exactly 18 words of natural narration"}]}`)
	fmt.Fprintf(sb, ". Write exactly 5 connected scenes about: %s. ", prompt)
	sb.WriteString("Scene 1 hooks the viewer, scene 2 gives context, scene 3 delivers the core insight, scene 4 shows the impact, scene 5 concludes with a memorable takeaway. ")
	sb.WriteString("Each scene dialogue must be exactly 18 words, flow naturally into the next scene, and avoid repeating vocabulary across scenes. ")
	sb.WriteString("Write as a professional narrator speaking to an audience; never open with 'This is' or 'Here we see'.")
	return sb.String()
}

func extractJSONFragment(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}
	text = trimCodeFence(text)
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

var _ Generator = (*Gemini)(nil)
