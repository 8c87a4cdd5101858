package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	maxTokens      = 1024
	temperature    = 0.3
	maxErrorBody   = 4096
)

// ErrorKind discriminates provider failures
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindTimeout
	KindStatus
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	default:
		return "other"
	}
}

// ProviderError is returned by Client.Complete for every failure
type ProviderError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("chat provider returned %d: %v", e.StatusCode, e.Err)
	case KindTimeout:
		return fmt.Sprintf("chat provider timed out: %v", e.Err)
	default:
		return fmt.Sprintf("chat provider failed: %v", e.Err)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Message is one turn of a completion request
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ClientConfig struct {
	URL     string
	APIKey  string
	Model   string
	Referer string
	Title   string
	Timeout time.Duration
}

// Client talks to an OpenRouter compatible chat completions endpoint
type Client struct {
	url        string
	apiKey     string
	model      string
	referer    string
	title      string
	httpClient *http.Client
}

// NewClient creates a completion client. A missing API key is not an error
// here; requests fail at call time instead.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		url:     cfg.URL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		referer: cfg.Referer,
		title:   cfg.Title,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Complete sends the conversation and returns the assistant reply
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", &ProviderError{Kind: KindOther, Err: errors.New("api key is not configured")}
	}

	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", &ProviderError{Kind: KindOther, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", &ProviderError{Kind: KindOther, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &ProviderError{Kind: KindStatus, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", bytes.TrimSpace(msg))}
	}

	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", classify(fmt.Errorf("decode response: %w", err))
	}
	if len(out.Choices) == 0 {
		return "", &ProviderError{Kind: KindOther, Err: errors.New("response has no choices")}
	}
	return out.Choices[0].Message.Content, nil
}

func classify(err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderError{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ProviderError{Kind: KindTimeout, Err: err}
	}
	return &ProviderError{Kind: KindOther, Err: err}
}
