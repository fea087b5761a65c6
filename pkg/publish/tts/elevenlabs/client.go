// Package elevenlabs voices text through the ElevenLabs text-to-speech API
// and returns audio together with per-character timings.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tendant/simple-publish/pkg/publish"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io"
	DefaultModel   = "eleven_flash_v2_5"

	// error bodies are truncated to this many bytes
	maxErrorBody = 2048
)

// Config configures the client
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Client implements publish.Synthesizer
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// New creates a client. The API key is required.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing ElevenLabs API key")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type speechRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize calls the with-timestamps endpoint for one page of text.
// A non-200 response becomes a *publish.SynthesisError carrying the status
// and the response body.
func (c *Client) Synthesize(ctx context.Context, req publish.SpeechRequest) (*publish.SpeechResult, error) {
	if strings.TrimSpace(req.VoiceID) == "" {
		return nil, &publish.SynthesisError{Err: fmt.Errorf("%w: voice id", publish.ErrInvalidArgument)}
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, &publish.SynthesisError{Err: publish.ErrEmptyText}
	}

	body, err := json.Marshal(speechRequest{Text: req.Text, ModelID: c.cfg.Model})
	if err != nil {
		return nil, &publish.SynthesisError{Err: fmt.Errorf("encode request: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s/with-timestamps", c.cfg.BaseURL, url.PathEscape(req.VoiceID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &publish.SynthesisError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &publish.SynthesisError{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &publish.SynthesisError{
			Status:  resp.StatusCode,
			Message: strings.TrimSpace(string(raw)),
		}
	}

	var out publish.SpeechResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &publish.SynthesisError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.AudioBase64 == "" {
		return nil, &publish.SynthesisError{Err: fmt.Errorf("response carries no audio")}
	}
	return &out, nil
}
