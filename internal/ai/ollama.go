package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Compile-time interface check.
var _ Provider = (*OllamaProvider)(nil)

const (
	defaultOllamaURL   = "http://localhost:11434"
	defaultOllamaModel = "llama3.2:3b"
)

// OllamaProvider generates answers through a local Ollama server.
type OllamaProvider struct {
	baseURL     string
	model       string
	temperature float64
	client      *http.Client
}

// NewOllama creates an Ollama generation client. baseURL and model can be
// empty to use the defaults.
func NewOllama(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	return &OllamaProvider{
		baseURL:     baseURL,
		model:       model,
		temperature: 0.7,
		client:      &http.Client{Timeout: 120 * time.Second},
	}
}

func (o *OllamaProvider) Name() string { return "ollama:" + o.model }

// Generate sends the prompt to /api/generate and returns the raw response
// text unmodified.
func (o *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  o.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: o.temperature,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("ollama generate: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama generate: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama generate: request failed: %w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama generate: read response: %w: %v", ErrUnavailable, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama generate: API error %d: %s: %w", httpResp.StatusCode, respBody, ErrUnavailable)
	}

	var resp ollamaGenerateResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("ollama generate: unmarshal response: %w: %v", ErrUnavailable, err)
	}
	if strings.TrimSpace(resp.Response) == "" {
		return "", fmt.Errorf("ollama generate: empty response: %w", ErrUnavailable)
	}

	return resp.Response, nil
}

// Ollama API types

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}
