package sourcing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-scout/internal/ai"
	"github.com/spigell/talent-scout/internal/logger"
	"github.com/spigell/talent-scout/internal/utils"
)

const justifySystemPrompt = "You are a technical recruiter. Write a brief justification focusing only " +
	"on the candidate's technical skills and project experience."

// Justifier writes a short rationale for a candidate. It never fails: errors
// degrade to filler text.
type Justifier struct {
	completer ai.Completer
	model     string
	limit     int
	logger    *zap.Logger
}

func NewJustifier(completer ai.Completer, model string, dailyLimit int, logger *zap.Logger) *Justifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyTokenLimit
	}
	return &Justifier{completer: completer, model: model, limit: dailyLimit, logger: logger}
}

func (j *Justifier) Justify(ctx context.Context, sess *Session, login string, repos []Repository) string {
	resp, err := j.completer.Complete(ctx, ai.CompletionRequest{
		Model: j.model,
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: justifySystemPrompt},
			{Role: ai.RoleUser, Content: justifyPrompt(login, repos, sess.JobDescription())},
		},
		MaxTokens:   MaxTokensPerRequest,
		Temperature: ai.Temperature(justifyTemperature),
	})
	if err == nil && strings.TrimSpace(resp.Text) == "" {
		err = errors.New(msgNoContent)
	}

	if err != nil {
		j.logger.Warn("generating justification", zap.String(logger.FieldLogin, login), zap.Error(err))
		if sess.TokensUsed() >= j.limit {
			return TokenLimitMessage
		}
		return UnableToJustifyMessage
	}

	sess.AddTokens(resp.TokensUsed)
	return strings.TrimSpace(resp.Text)
}

func justifyPrompt(login string, repos []Repository, jobDescription string) string {
	return fmt.Sprintf(
		"Based on their GitHub repositories (%s), explain in 2 sentences why %s would be a good fit for a role requiring %s",
		summarizeRepos(repos), login, utils.FirstLine(jobDescription),
	)
}

// summarizeRepos renders "name (lang, lang); name (lang)".
func summarizeRepos(repos []Repository) string {
	parts := make([]string, 0, len(repos))
	for _, repo := range repos {
		parts = append(parts, fmt.Sprintf("%s (%s)", repo.Name, strings.Join(repo.Languages, ", ")))
	}
	return strings.Join(parts, "; ")
}
