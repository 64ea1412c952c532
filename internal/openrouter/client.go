package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/sibyl/internal/metrics"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	maxErrorBody    = 64 << 10
	maxResponseBody = 4 << 20
)

type Client struct {
	apiKey  string
	baseURL string
	referer string
	title   string
	client  *http.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Client)

// WithAppInfo sets the attribution headers OpenRouter shows on its dashboard.
func WithAppInfo(referer, title string) Option {
	return func(c *Client) {
		c.referer = referer
		c.title = title
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options are the sampling parameters sent with every candidate.
type Options struct {
	Temperature float64
	MaxTokens   int
}

type request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type response struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// Complete sends one chat-completion request for a single model and returns
// the first choice's content. A present choice with no content yields "".
func (c *Client) Complete(ctx context.Context, model string, messages []Message, opts Options) (string, error) {
	body, err := json.Marshal(request{
		Model:       model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{Model: model, StatusCode: resp.StatusCode, Body: string(respBody)}
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			statusErr.Body = errResp.Error.Message
		}
		return "", statusErr
	}

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if len(respBody) > maxResponseBody {
		return "", fmt.Errorf("%w: body exceeds %d bytes", ErrMalformedResponse, maxResponseBody)
	}

	return parseContent(respBody)
}

// parseContent extracts choices[0].message.content. Anything that is not a
// JSON object with at least one choice is a malformed provider response.
func parseContent(body []byte) (string, error) {
	var apiResp response
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}
	msg := apiResp.Choices[0].Message
	if msg == nil || msg.Content == nil {
		return "", nil
	}
	return *msg.Content, nil
}
