package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Compile-time interface check.
var _ Provider = (*OpenAIProvider)(nil)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	openAIChatURL      = "https://api.openai.com/v1/chat/completions"
)

// OpenAIProvider generates answers through the OpenAI chat completions API.
type OpenAIProvider struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string // configurable for testing; defaults to openAIChatURL
}

// NewOpenAI creates an OpenAI generation client. model can be empty
// (defaults to "gpt-4o-mini").
func NewOpenAI(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIProvider{
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		baseURL: openAIChatURL,
	}
}

func (o *OpenAIProvider) Name() string { return "openai:" + o.model }

// Generate sends the prompt as a single user message and returns the first
// choice's content.
func (o *OpenAIProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := openAIChatRequest{
		Model: o.model,
		Messages: []openAIChatMessage{
			{Role: "user", Content: prompt},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("openai generate: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("openai generate: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	httpResp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai generate: request failed: %w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("openai generate: read response: %w: %v", ErrUnavailable, err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai generate: API error %d: %s: %w", httpResp.StatusCode, respBody, ErrUnavailable)
	}

	var resp openAIChatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("openai generate: unmarshal response: %w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai generate: no choices in response: %w", ErrUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}

// OpenAI API types

type openAIChatRequest struct {
	Model    string              `json:"model"`
	Messages []openAIChatMessage `json:"messages"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIChatMessage `json:"message"`
	} `json:"choices"`
}
