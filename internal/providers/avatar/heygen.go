// Package avatar renders a narrated avatar video from a structured script.
package avatar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"videoforge/internal/providers/script"
)

// Video is the rendered output reference.
type Video struct {
	URL      string
	Duration float64
}

// Synthesizer turns a scene list into a playable video. Rendering is
// long-running; implementations poll the provider until it settles.
type Synthesizer interface {
	Synthesize(ctx context.Context, scenes []script.Scene) (*Video, error)
}

type HeyGenOptions struct {
	APIKey       string
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	MaxPolls     int
}

// HeyGen submits the script to HeyGen's video generation API and polls the
// status endpoint until the render completes or fails.
type HeyGen struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	maxPolls     int

	avatarOnce sync.Once
	avatarID   string
}

const (
	// Documented example ids used when avatar listing is unavailable. The
	// voice is pinned to an ElevenLabs voice rather than listed.
	fallbackAvatarID = "Angela-inTshirt-20220820"
	defaultVoiceID   = "d774d69075f24d1fb52a0dad145ba809"

	heygenDefaultTimeout      = 5 * time.Minute
	heygenDefaultPollInterval = 5 * time.Second
	heygenDefaultMaxPolls     = 240

	// Scenes target six seconds of speech at three words per second.
	sceneSeconds  = 6.0
	wordsPerSec   = 3.0
	minVoiceSpeed = 0.6
	maxVoiceSpeed = 1.5
)

func NewHeyGen(opts HeyGenOptions) (*HeyGen, error) {
	if opts.APIKey == "" {
		return nil, errors.New("heygen api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.heygen.com"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: heygenDefaultTimeout}
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = heygenDefaultPollInterval
	}
	maxPolls := opts.MaxPolls
	if maxPolls <= 0 {
		maxPolls = heygenDefaultMaxPolls
	}
	return &HeyGen{
		apiKey:       opts.APIKey,
		baseURL:      baseURL,
		client:       client,
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
	}, nil
}

type heygenCharacter struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

type heygenVoice struct {
	Type      string  `json:"type"`
	InputText string  `json:"input_text"`
	VoiceID   string  `json:"voice_id"`
	Speed     float64 `json:"speed"`
	Emotion   string  `json:"emotion"`
}

type heygenBackground struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type heygenVideoInput struct {
	Character  heygenCharacter  `json:"character"`
	Voice      heygenVoice      `json:"voice"`
	Background heygenBackground `json:"background"`
}

type heygenGenerateRequest struct {
	VideoInputs []heygenVideoInput `json:"video_inputs"`
	Dimension   struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"dimension"`
}

type heygenGenerateResponse struct {
	Data struct {
		VideoID string `json:"video_id"`
	} `json:"data"`
}

type heygenStatusResponse struct {
	Data struct {
		Status   string  `json:"status"`
		VideoURL string  `json:"video_url"`
		Duration float64 `json:"duration"`
		Error    struct {
			Message string `json:"message"`
		} `json:"error"`
	} `json:"data"`
}

type heygenAvatarsResponse struct {
	Data struct {
		Avatars []struct {
			AvatarID string `json:"avatar_id"`
		} `json:"avatars"`
	} `json:"data"`
}

func (h *HeyGen) Synthesize(ctx context.Context, scenes []script.Scene) (*Video, error) {
	if len(scenes) == 0 {
		return nil, errors.New("heygen: no scenes to render")
	}
	videoID, err := h.submit(ctx, scenes)
	if err != nil {
		return nil, err
	}
	return h.await(ctx, videoID)
}

func (h *HeyGen) submit(ctx context.Context, scenes []script.Scene) (string, error) {
	req := heygenGenerateRequest{VideoInputs: h.buildInputs(scenes)}
	req.Dimension.Width = 1280
	req.Dimension.Height = 720

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return "", fmt.Errorf("heygen: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/v2/video/generate", &buf)
	if err != nil {
		return "", fmt.Errorf("heygen: build request: %w", err)
	}
	h.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("heygen: generate request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("heygen: generate returned status %d", resp.StatusCode)
	}
	var out heygenGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("heygen: decode generate response: %w", err)
	}
	if out.Data.VideoID == "" {
		return "", errors.New("heygen: no video_id in generate response")
	}
	return out.Data.VideoID, nil
}

func (h *HeyGen) await(ctx context.Context, videoID string) (*Video, error) {
	for i := 0; i < h.maxPolls; i++ {
		status, err := h.pollStatus(ctx, videoID)
		if err != nil {
			// Transient poll failures are retried; only a terminal
			// provider status or exhaustion ends the wait.
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		} else {
			switch status.Data.Status {
			case "completed":
				if status.Data.VideoURL == "" {
					return nil, errors.New("heygen: video completed without a url")
				}
				duration := status.Data.Duration
				if duration == 0 {
					duration = 30.0
				}
				return &Video{URL: status.Data.VideoURL, Duration: duration}, nil
			case "failed":
				msg := status.Data.Error.Message
				if msg == "" {
					msg = "unknown error"
				}
				return nil, fmt.Errorf("heygen: video generation failed: %s", msg)
			}
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(h.pollInterval):
		}
	}
	return nil, fmt.Errorf("heygen: video generation timed out after %d polls", h.maxPolls)
}

func (h *HeyGen) pollStatus(ctx context.Context, videoID string) (*heygenStatusResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/v1/video_status.get?video_id="+videoID, nil)
	if err != nil {
		return nil, err
	}
	h.setHeaders(httpReq)
	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var out heygenStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (h *HeyGen) buildInputs(scenes []script.Scene) []heygenVideoInput {
	avatarID := h.chooseAvatar()
	emotions := []string{"Excited", "Friendly", "Serious", "Friendly", "Friendly"}
	inputs := make([]heygenVideoInput, 0, len(scenes))
	for i, sc := range scenes {
		emotion := emotions[len(emotions)-1]
		if i < len(emotions) {
			emotion = emotions[i]
		}
		inputs = append(inputs, heygenVideoInput{
			Character: heygenCharacter{
				Type:        "avatar",
				AvatarID:    avatarID,
				AvatarStyle: "normal",
			},
			Voice: heygenVoice{
				Type:      "text",
				InputText: sc.Dialogue,
				VoiceID:   defaultVoiceID,
				Speed:     voiceSpeed(sc.Dialogue),
				Emotion:   emotion,
			},
			Background: heygenBackground{Type: "color", Value: "#000000"},
		})
	}
	return inputs
}

// chooseAvatar lists avatars once per provider lifetime and picks a random
// one for variety, falling back to a documented id when listing fails.
func (h *HeyGen) chooseAvatar() string {
	h.avatarOnce.Do(func() {
		h.avatarID = fallbackAvatarID
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/v2/avatars", nil)
		if err != nil {
			return
		}
		h.setHeaders(httpReq)
		resp, err := h.client.Do(httpReq)
		if err != nil {
			return
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode >= 300 {
			return
		}
		var out heygenAvatarsResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return
		}
		if len(out.Data.Avatars) > 0 {
			pick := out.Data.Avatars[rand.Intn(len(out.Data.Avatars))]
			if pick.AvatarID != "" {
				h.avatarID = pick.AvatarID
			}
		}
	})
	return h.avatarID
}

func (h *HeyGen) setHeaders(req *http.Request) {
	req.Header.Set("X-Api-Key", h.apiKey)
	req.Header.Set("Accept", "application/json")
}

// voiceSpeed scales speaking speed so the dialogue lands near the six-second
// scene budget, clamped to HeyGen's accepted range.
func voiceSpeed(dialogue string) float64 {
	words := len(strings.Fields(dialogue))
	if words == 0 {
		words = 1
	}
	speed := (float64(words) / wordsPerSec) / sceneSeconds
	if speed < minVoiceSpeed {
		speed = minVoiceSpeed
	}
	if speed > maxVoiceSpeed {
		speed = maxVoiceSpeed
	}
	return float64(int(speed*100+0.5)) / 100
}

var _ Synthesizer = (*HeyGen)(nil)
