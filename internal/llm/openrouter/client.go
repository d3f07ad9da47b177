package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"recruit-backend/internal/llm"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
)

const defaultURL = "https://openrouter.ai/api/v1/chat/completions"

// Config configures the OpenRouter-compatible chat completion client.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Referer string
	Title   string
}

// Client implements llm.Gateway over an OpenAI-compatible chat completions API.
type Client struct {
	apiKey     string
	model      string
	url        string
	referer    string
	title      string
	httpClient *http.Client
}

// New constructs a client. Missing model or key is a configuration error.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, &llm.ConfigurationError{Setting: "LLM_MODEL"}
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &llm.ConfigurationError{Setting: "OPENROUTER_API_KEY"}
	}
	url := strings.TrimSpace(cfg.BaseURL)
	if url == "" {
		url = defaultURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   strings.TrimSpace(cfg.Model),
		url:     url,
		referer: cfg.Referer,
		title:   cfg.Title,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// Complete forwards messages and returns the upstream body verbatim.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, temperature float64) (llm.RawCompletion, error) {
	payload, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: temperature,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}
	if id := telemetry.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-Id", id)
	}

	start := time.Now()
	metrics.IncLLMRequests()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.IncLLMFailures()
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, &llm.TransportError{Message: fmt.Sprintf("request timeout: %v", err)}
		}
		return nil, &llm.TransportError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.ObserveLLMLatencyMs(float64(time.Since(start).Microseconds()) / 1000.0)
	if err != nil {
		metrics.IncLLMFailures()
		return nil, &llm.TransportError{Status: resp.StatusCode, Message: fmt.Sprintf("read body: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.IncLLMFailures()
		return nil, &llm.TransportError{Status: resp.StatusCode, Message: upstreamMessage(body, resp.Status)}
	}

	logUsage(ctx, c.model, body, time.Since(start))
	return llm.RawCompletion(body), nil
}

func upstreamMessage(body []byte, status string) string {
	if msg := gjson.GetBytes(body, "error.message"); msg.Exists() && msg.String() != "" {
		return msg.String()
	}
	if msg := gjson.GetBytes(body, "error"); msg.Type == gjson.String && msg.String() != "" {
		return msg.String()
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return telemetry.Truncate(trimmed, 500)
	}
	return status
}

func logUsage(ctx context.Context, model string, body []byte, elapsed time.Duration) {
	usage := gjson.GetManyBytes(body, "usage.prompt_tokens", "usage.completion_tokens", "usage.total_tokens")
	telemetry.Info("llm.response", map[string]any{
		"model":             model,
		"prompt_tokens":     usage[0].Int(),
		"completion_tokens": usage[1].Int(),
		"total_tokens":      usage[2].Int(),
		"duration_ms":       elapsed.Milliseconds(),
		"request_id":        telemetry.RequestID(ctx),
	})
}

var _ llm.Gateway = (*Client)(nil)
