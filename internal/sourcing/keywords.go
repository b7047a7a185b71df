package sourcing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-scout/internal/ai"
)

var keywordsSystemPrompt = fmt.Sprintf(
	"Extract exactly %d primary technical skills from the job description. "+
		"Return only a comma-separated list of programming languages or technical tools.",
	MaxKeywords,
)

// KeywordExtractor reduces a job description to a few technical search terms.
type KeywordExtractor struct {
	completer ai.Completer
	model     string
	logger    *zap.Logger
}

func NewKeywordExtractor(completer ai.Completer, model string, logger *zap.Logger) *KeywordExtractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeywordExtractor{completer: completer, model: model, logger: logger}
}

// Extract calls the text service once and accounts the tokens on the session.
func (e *KeywordExtractor) Extract(ctx context.Context, sess *Session, jobDescription string) ([]string, error) {
	resp, err := e.completer.Complete(ctx, ai.CompletionRequest{
		Model: e.model,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: keywordsSystemPrompt},
			{Role: ai.RoleUser, Content: jobDescription},
		},
		MaxTokens: keywordMaxTokens,
	})
	if err != nil {
		e.logger.Error("extracting keywords", zap.Error(err))
		if errors.Is(err, ai.ErrUnauthorized) {
			return nil, &Error{Kind: ErrAuth, Message: msgInvalidAIKey, Err: err}
		}
		return nil, &Error{Message: msgExtractFailed + err.Error(), Err: err}
	}

	if strings.TrimSpace(resp.Text) == "" {
		return nil, &Error{Kind: ErrEmptyResponse, Message: msgExtractFailed + msgNoContent}
	}

	sess.AddTokens(resp.TokensUsed)

	keywords := parseKeywords(resp.Text)
	if len(keywords) == 0 {
		return nil, &Error{Kind: ErrEmptyResponse, Message: msgExtractFailed + msgNoContent}
	}

	e.logger.Info("extracted keywords",
		zap.Strings("keywords", keywords),
		zap.Int("tokens", resp.TokensUsed),
	)

	return keywords, nil
}

// parseKeywords splits a comma-separated reply, keeping order and at most MaxKeywords entries.
func parseKeywords(text string) []string {
	keywords := make([]string, 0, MaxKeywords)
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keywords = append(keywords, part)
		if len(keywords) == MaxKeywords {
			break
		}
	}
	return keywords
}
