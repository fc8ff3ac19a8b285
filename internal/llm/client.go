package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/shopsearch/shop-search/internal/config"
	apperrors "github.com/shopsearch/shop-search/internal/pkg/errors"
	"github.com/shopsearch/shop-search/internal/pkg/logger"
)

// Client is an OpenAI-compatible chat completion and embedding client.
type Client struct {
	httpClient *http.Client
	cfg        config.LLMConfig
	log        *logger.Logger

	mu       sync.RWMutex
	lastErr  error
	closed   bool
}

// NewClient creates a new LLM client from configuration.
func NewClient(cfg config.LLMConfig, log *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("llm base URL is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
		log:        log,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Complete sends a system + user prompt pair and returns the generated text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	req := chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}

	var resp chatResponse
	if err := c.post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}

	if resp.Error != nil {
		err := apperrors.LLMError("completion failed", fmt.Errorf("%s", resp.Error.Message))
		c.recordErr(err)
		return "", err
	}

	if len(resp.Choices) == 0 {
		err := apperrors.LLMError("completion returned no choices", nil)
		c.recordErr(err)
		return "", err
	}

	c.recordErr(nil)
	return resp.Choices[0].Message.Content, nil
}

// Embed generates a dense embedding for a text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	req := embedRequest{
		Model: c.cfg.EmbedModel,
		Input: []string{text},
	}

	var resp embedResponse
	if err := c.post(ctx, "/embeddings", req, &resp); err != nil {
		return nil, err
	}

	if resp.Error != nil {
		err := apperrors.LLMError("embedding failed", fmt.Errorf("%s", resp.Error.Message))
		c.recordErr(err)
		return nil, err
	}

	if len(resp.Data) == 0 {
		err := apperrors.LLMError("embedding returned no data", nil)
		c.recordErr(err)
		return nil, err
	}

	c.recordErr(nil)
	return resp.Data[0].Embedding, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return fmt.Errorf("llm client is closed")
	}
	c.mu.RUnlock()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			appErr := apperrors.TimeoutError("llm call")
			c.recordErr(appErr)
			return appErr
		}
		appErr := apperrors.LLMError("request failed", err)
		c.recordErr(appErr)
		return appErr
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return apperrors.LLMError("reading response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		appErr := apperrors.LLMError(
			fmt.Sprintf("unexpected status %d", httpResp.StatusCode), nil)
		c.recordErr(appErr)
		return appErr
	}

	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.LLMError("decoding response", err)
	}

	return nil
}

func (c *Client) recordErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

// Health returns the service health status.
func (c *Client) Health() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := HealthStatus{
		Healthy: c.lastErr == nil && !c.closed,
		Model:   c.cfg.Model,
	}
	if c.lastErr != nil {
		status.Error = c.lastErr.Error()
	}
	return status
}

// Close releases resources.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.httpClient.CloseIdleConnections()
	return nil
}
