package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Compile-time interface check.
var _ Embedder = (*OpenAIEmbedder)(nil)

const (
	defaultOpenAIModel = "text-embedding-3-small"
	openAIEmbedURL     = "https://api.openai.com/v1/embeddings"
	maxRetries         = 3
)

// OpenAIEmbedder implements Embedder using the OpenAI embeddings API.
// Transient failures (network, 429, 5xx) are retried with exponential
// backoff; after the retry budget is exhausted the error wraps
// ErrUnavailable.
type OpenAIEmbedder struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string // configurable for testing; defaults to openAIEmbedURL
}

// NewOpenAI creates an OpenAI embedding client. model can be empty
// (defaults to "text-embedding-3-small").
func NewOpenAI(apiKey, model string) *OpenAIEmbedder {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIEmbedder{
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: openAIEmbedURL,
	}
}

func (o *OpenAIEmbedder) Name() string { return "openai:" + o.model }

// EmbedDocuments sends all texts to the embeddings API in one request.
func (o *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(openAIEmbedRequest{Model: o.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("openai embed: marshal request: %w", err)
	}

	var resp openAIEmbedResponse
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("openai embed: %w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("openai embed: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+o.apiKey)

		httpResp, err := o.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("openai embed: request failed: %v", err)
			continue
		}

		respBody, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("openai embed: read response: %v", err)
			continue
		}

		if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
			lastErr = fmt.Errorf("openai embed: API error %d", httpResp.StatusCode)
			continue
		}
		if httpResp.StatusCode != http.StatusOK {
			// Non-retryable client error
			return nil, fmt.Errorf("openai embed: API error %d: %s: %w",
				httpResp.StatusCode, respBody, ErrUnavailable)
		}

		if err := json.Unmarshal(respBody, &resp); err != nil {
			return nil, fmt.Errorf("openai embed: unmarshal response: %w: %v", ErrUnavailable, err)
		}
		lastErr = nil
		break
	}

	if lastErr != nil {
		return nil, fmt.Errorf("%v: %w", lastErr, ErrUnavailable)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai embed: got %d vectors for %d texts: %w",
			len(resp.Data), len(texts), ErrUnavailable)
	}

	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai embed: vector index %d out of range: %w", d.Index, ErrUnavailable)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("openai embed: empty vector at index %d: %w", i, ErrUnavailable)
		}
	}

	return vectors, nil
}

// EmbedQuery embeds a single query string.
func (o *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// OpenAI API types

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []openAIEmbedData `json:"data"`
}

type openAIEmbedData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}
