// Package gemini implements ai.Completer using the Google GenAI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/talent-scout/internal/ai"
	"github.com/spigell/talent-scout/internal/ai/tokencount"
	"github.com/spigell/talent-scout/internal/logger"
	"github.com/spigell/talent-scout/internal/utils"
)

const (
	Provider = "gemini"

	defaultModel        = "gemini-2.5-flash"
	defaultMaxLogLength = 200
)

type modelsAPI interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator wraps the Google GenAI client to provide chat-shaped completions.
type Generator struct {
	models     modelsAPI
	model      string
	maxRetries int
	maxLogLen  int
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

type Config struct {
	APIKey       string
	Model        string
	MaxRetries   int
	MaxLogLength int
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	maxLogLen := cfg.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	return &Generator{
		models:     client.Models,
		model:      model,
		maxRetries: maxRetries,
		maxLogLen:  maxLogLen,
		logger:     logger.WithCommonFields(log, Provider, model),
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Complete maps system messages to the system instruction and the rest to user turns.
func (g *Generator) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	if g == nil || g.models == nil {
		return nil, errors.New("gemini generator is not initialized")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = g.model
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		Temperature:     req.Temperature,
	}

	var system []string
	var contents []*genai.Content
	var texts []string
	for _, m := range req.Messages {
		texts = append(texts, m.Content)
		if m.Role == ai.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  genai.RoleUser,
			Parts: []*genai.Part{{Text: m.Content}},
		})
	}

	if len(contents) == 0 {
		return nil, errors.New("at least one user message is required")
	}

	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
		}
	}

	last := texts[len(texts)-1]
	g.logger.Debug("gemini generate content request",
		zap.String("model", model),
		zap.Int("prompt_length", utf8.RuneCountInString(last)),
		zap.String("prompt_preview", utils.TruncateForLog(last, g.maxLogLen)),
	)

	var resp *genai.GenerateContentResponse
	op := func() error {
		var err error
		resp, err = g.models.GenerateContent(ctx, model, contents, config)
		return classify(err)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), uint64(g.maxRetries)), ctx)
	notify := func(err error, wait time.Duration) {
		g.logger.Warn("gemini request failed, retrying", zap.Error(err), zap.Duration("wait", wait))
	}

	if err := backoff.RetryNotify(op, bo, notify); err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := collectText(resp)

	var tokens int
	if resp != nil && resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	} else {
		tokens = tokencount.Chat(model, texts, text)
	}

	g.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(text)),
		zap.String("response_preview", utils.TruncateForLog(text, g.maxLogLen)),
		zap.Int("tokens", tokens),
	)

	return &ai.Completion{Text: text, TokensUsed: tokens}, nil
}

// classify marks non-transient API errors as permanent for the retry loop.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden, invalidAPIKey(apiErr):
		return backoff.Permanent(fmt.Errorf("%w: %s", ai.ErrUnauthorized, apiErr.Error()))
	case apiErr.Code == http.StatusTooManyRequests:
		return backoff.Permanent(fmt.Errorf("%w: %s", ai.ErrRateLimited, apiErr.Error()))
	case apiErr.Code >= http.StatusInternalServerError:
		return err
	default:
		return backoff.Permanent(err)
	}
}

// invalidAPIKey reports the 400 INVALID_ARGUMENT the Gemini API returns for a bad key.
func invalidAPIKey(apiErr genai.APIError) bool {
	if apiErr.Code != http.StatusBadRequest {
		return false
	}
	if strings.Contains(apiErr.Message, "API key not valid") {
		return true
	}
	for _, detail := range apiErr.Details {
		if reason, _ := detail["reason"].(string); reason == "API_KEY_INVALID" {
			return true
		}
	}
	return false
}

func collectText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}
