// Package openai implements ai.Completer on top of an OpenAI-compatible chat completions API.
package openai

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
	"unicode/utf8"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/spigell/talent-scout/internal/ai"
	"github.com/spigell/talent-scout/internal/ai/tokencount"
	"github.com/spigell/talent-scout/internal/logger"
	"github.com/spigell/talent-scout/internal/utils"
)

const (
	Provider = "openai"

	defaultBaseURL      = "https://api.openai.com/v1"
	defaultModel        = "gpt-3.5-turbo"
	defaultTimeout      = 60 * time.Second
	defaultMaxLogLength = 200
	completionsPath     = "/chat/completions"
	maxErrorSnippet     = 512
)

type Config struct {
	APIKey       string
	Model        string
	BaseURL      string
	MaxRetries   int
	MaxLogLength int
}

type Client struct {
	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger

	HTTPClient *http.Client
	// newBackOff is replaced in tests to avoid real sleeps.
	newBackOff func() backoff.BackOff
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature *float32      `json:"temperature,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage *struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func New(cfg Config, log *zap.Logger) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	return &Client{
		apiKey:     apiKey,
		model:      model,
		baseURL:    baseURL,
		maxRetries: maxRetries,
		maxLogLen:  maxLogLen,
		logger:     logger.WithCommonFields(log, Provider, model),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}, nil
}

func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Complete sends one chat completion request. Transient failures (network, 5xx)
// are retried; authentication and throttling responses are returned immediately.
func (c *Client) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = c.model
	}

	body := chatRequest{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}

	contents := make([]string, 0, len(req.Messages))
	for _, m := range req.Messages {
		body.Messages = append(body.Messages, chatMessage{Role: m.Role, Content: m.Content})
		contents = append(contents, m.Content)
	}

	if len(body.Messages) == 0 {
		return nil, errors.New("at least one message is required")
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	last := contents[len(contents)-1]
	c.logger.Debug("chat completion request",
		zap.String("model", model),
		zap.Int("max_tokens", req.MaxTokens),
		zap.Int("prompt_length", utf8.RuneCountInString(last)),
		zap.String("prompt_preview", utils.TruncateForLog(last, c.maxLogLen)),
	)

	var out chatResponse
	op := func() error {
		return c.do(ctx, payload, &out)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)), ctx)
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("chat completion failed, retrying", zap.Error(err), zap.Duration("wait", wait))
	}

	if err := backoff.RetryNotify(op, bo, notify); err != nil {
		return nil, err
	}

	text := ""
	if len(out.Choices) > 0 {
		text = strings.TrimSpace(out.Choices[0].Message.Content)
	}

	var tokens int
	if out.Usage != nil {
		tokens = out.Usage.TotalTokens
	} else {
		tokens = tokencount.Chat(model, contents, text)
		c.logger.Debug("usage missing from response, estimated locally", zap.Int("tokens", tokens))
	}

	c.logger.Debug("chat completion response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, c.maxLogLen)),
		zap.Int("tokens", tokens),
	)

	return &ai.Completion{Text: text, TokensUsed: tokens}, nil
}

func (c *Client) do(ctx context.Context, payload []byte, out *chatResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+completionsPath, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(fmt.Errorf("%w: %s", ai.ErrUnauthorized, errorMessage(resp.Status, data)))
	case resp.StatusCode == http.StatusTooManyRequests:
		return backoff.Permanent(fmt.Errorf("%w: %s", ai.ErrRateLimited, errorMessage(resp.Status, data)))
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return backoff.Permanent(fmt.Errorf("chat completions: %s", errorMessage(resp.Status, data)))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("chat completions: %s", errorMessage(resp.Status, data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return backoff.Permanent(fmt.Errorf("decode chat response: %w", err))
	}

	return nil
}

// errorMessage prefers the provider's error message over the raw body.
func errorMessage(status string, body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && strings.TrimSpace(parsed.Error.Message) != "" {
		return fmt.Sprintf("%s: %s", status, strings.TrimSpace(parsed.Error.Message))
	}

	snippet := strings.TrimSpace(string(body))
	if len(snippet) > maxErrorSnippet {
		snippet = snippet[:maxErrorSnippet]
	}
	if snippet == "" {
		return status
	}
	return fmt.Sprintf("%s: %s", status, snippet)
}
