// Package caption burns subtitles into a rendered video.
package caption

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Burner transcribes a video and returns a reference to the captioned copy.
type Burner interface {
	Burn(ctx context.Context, videoURL string) (string, error)
}

// Passthrough skips captioning and hands back the input reference. Selected
// at wiring time when no captioning provider is configured.
type Passthrough struct{}

func NewPassthrough() *Passthrough {
	return &Passthrough{}
}

func (p *Passthrough) Burn(ctx context.Context, videoURL string) (string, error) {
	return videoURL, nil
}

type SubmagicOptions struct {
	APIKey       string
	BaseURL      string
	HTTPClient   *http.Client
	PollInterval time.Duration
	MaxPolls     int
}

// Submagic creates a captioning project, triggers an export, and polls the
// project until a download URL is available.
type Submagic struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	maxPolls     int
}

const (
	submagicDefaultTimeout      = 60 * time.Second
	submagicDefaultPollInterval = 5 * time.Second
	submagicDefaultMaxPolls     = 60
	submagicTemplate            = "Sara"
)

func NewSubmagic(opts SubmagicOptions) (*Submagic, error) {
	if opts.APIKey == "" {
		return nil, errors.New("submagic api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.submagic.co"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: submagicDefaultTimeout}
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = submagicDefaultPollInterval
	}
	maxPolls := opts.MaxPolls
	if maxPolls <= 0 {
		maxPolls = submagicDefaultMaxPolls
	}
	return &Submagic{
		apiKey:       opts.APIKey,
		baseURL:      baseURL,
		client:       client,
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
	}, nil
}

type submagicCreateRequest struct {
	Title        string `json:"title"`
	Language     string `json:"language"`
	VideoURL     string `json:"videoUrl"`
	TemplateName string `json:"templateName"`
}

type submagicProject struct {
	ID          string `json:"id"`
	ProjectID   string `json:"projectId"`
	Status      string `json:"status"`
	DownloadURL string `json:"downloadUrl"`
	DirectURL   string `json:"directUrl"`
}

func (s *Submagic) Burn(ctx context.Context, videoURL string) (string, error) {
	projectID, err := s.createProject(ctx, videoURL)
	if err != nil {
		return "", err
	}
	if err := s.export(ctx, projectID); err != nil {
		return "", err
	}
	return s.await(ctx, projectID)
}

func (s *Submagic) createProject(ctx context.Context, videoURL string) (string, error) {
	payload := submagicCreateRequest{
		Title:        "Captioned video",
		Language:     "en",
		VideoURL:     videoURL,
		TemplateName: submagicTemplate,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("submagic: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/projects", &buf)
	if err != nil {
		return "", fmt.Errorf("submagic: build request: %w", err)
	}
	s.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("submagic: create project failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("submagic: create project returned status %d", resp.StatusCode)
	}
	var project submagicProject
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return "", fmt.Errorf("submagic: decode project: %w", err)
	}
	id := project.ID
	if id == "" {
		id = project.ProjectID
	}
	if id == "" {
		return "", errors.New("submagic: no project id returned")
	}
	return id, nil
}

func (s *Submagic) export(ctx context.Context, projectID string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/projects/"+projectID+"/export", nil)
	if err != nil {
		return fmt.Errorf("submagic: build export request: %w", err)
	}
	s.setHeaders(httpReq)
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("submagic: export failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("submagic: export returned status %d", resp.StatusCode)
	}
	return nil
}

func (s *Submagic) await(ctx context.Context, projectID string) (string, error) {
	for i := 0; i < s.maxPolls; i++ {
		project, err := s.pollProject(ctx, projectID)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		} else {
			url := project.DownloadURL
			if url == "" {
				url = project.DirectURL
			}
			if project.Status == "completed" && url != "" {
				return url, nil
			}
			if project.Status == "failed" {
				return "", errors.New("submagic: captioning failed")
			}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
	return "", fmt.Errorf("submagic: captioning timed out after %d polls", s.maxPolls)
}

func (s *Submagic) pollProject(ctx context.Context, projectID string) (*submagicProject, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/v1/projects/"+projectID, nil)
	if err != nil {
		return nil, err
	}
	s.setHeaders(httpReq)
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var project submagicProject
	if err := json.NewDecoder(resp.Body).Decode(&project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (s *Submagic) setHeaders(req *http.Request) {
	req.Header.Set("x-api-key", s.apiKey)
	req.Header.Set("Accept", "application/json")
}

var (
	_ Burner = (*Submagic)(nil)
	_ Burner = (*Passthrough)(nil)
)
