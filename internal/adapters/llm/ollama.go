// Package llm provides the small-language-model fallback client
// the router is the only caller and treats every failure as a soft miss
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	perr "flatsense/internal/platform/errors"
)

// Generator is the narrow seam the router depends on
// tests swap in a stub; production wires the Ollama client below
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config configures the Ollama-compatible endpoint
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Ollama calls an Ollama-compatible /api/generate endpoint
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

// New builds an Ollama client with defaults for blank config fields
func New(cfg Config) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Ollama{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate runs one non-streaming completion
// the caller's ctx deadline bounds the call on top of the client timeout
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: o.model, Prompt: prompt})
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "marshal generate request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnknown, "build generate request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeUnavailable, "llm endpoint unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", perr.Unavailablef("llm endpoint returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", perr.Wrap(err, perr.ErrorCodeJSON, "decode generate response")
	}
	return out.Response, nil
}
