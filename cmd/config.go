package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/talent-scout/internal/ai"
	"github.com/spigell/talent-scout/internal/ai/gemini"
	"github.com/spigell/talent-scout/internal/ai/openai"
	"github.com/spigell/talent-scout/internal/github"
	"github.com/spigell/talent-scout/internal/metrics"
	"github.com/spigell/talent-scout/internal/review"
	"github.com/spigell/talent-scout/internal/secrets"
	"github.com/spigell/talent-scout/internal/sourcing"
)

// newCompleter builds the configured text service client.
func newCompleter(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Completer, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = openai.Provider
	}

	env := "OPENAI_API_KEY"
	if provider == gemini.Provider {
		env = "GEMINI_API_KEY"
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  provider + " api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   env,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.api-key, ai.api-key-file or AI_API_KEY_FILE)", err)
	}

	var completer ai.Completer
	switch provider {
	case openai.Provider:
		completer, err = openai.New(openai.Config{
			APIKey:       apiKey,
			Model:        cfg.Model,
			BaseURL:      cfg.BaseURL,
			MaxRetries:   cfg.MaxRetries,
			MaxLogLength: cfg.MaxLogLength,
		}, log)
	case gemini.Provider:
		completer, err = gemini.NewGenerator(ctx, gemini.Config{
			APIKey:       apiKey,
			Model:        cfg.Model,
			MaxRetries:   cfg.MaxRetries,
			MaxLogLength: cfg.MaxLogLength,
		}, log)
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return completer, nil
}

// newDirectory builds the GitHub client. A missing token is not fatal.
func newDirectory(ctx context.Context, cfg *GitHubConfig, log *zap.Logger) *github.Client {
	token, err := secrets.Load(secrets.Source{
		Name:  "github token",
		File:  cfg.TokenFile,
		Value: cfg.Token,
		Env:   "GITHUB_TOKEN",
	})
	if err != nil {
		log.Warn("using anonymous GitHub access",
			zap.Error(err),
			zap.String("hint", "set GITHUB_TOKEN or github.token-file for a higher rate limit"),
		)
	}

	client := github.New(ctx, log, token)
	if cfg.APIURL != "" {
		client.APIURL = strings.TrimRight(cfg.APIURL, "/")
	}
	if cfg.UserAgent != "" {
		client.UserAgent = cfg.UserAgent
	}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}

	return client
}

func newPipeline(ctx context.Context, config *Config, recorder *metrics.Recorder, log *zap.Logger) (*sourcing.Pipeline, error) {
	completer, err := newCompleter(ctx, config.AI, log)
	if err != nil {
		return nil, fmt.Errorf("creating text service client: %w", err)
	}

	directory := newDirectory(ctx, config.GitHub, log)

	return sourcing.New(directory, completer, sourcing.Options{
		Model:           completer.Model(),
		DailyTokenLimit: config.Sourcing.DailyTokenLimit,
	}, recorder, log), nil
}

// newBoard returns a review board seeded from the exclude file, if any.
func newBoard(config *Config, log *zap.Logger) (*review.Board, error) {
	board := review.NewBoard()

	path := strings.TrimSpace(config.ExcludeFile)
	if path == "" {
		path = strings.TrimSpace(viper.GetString("exclude-file"))
	}
	if path == "" {
		return board, nil
	}

	excluded, err := review.LoadExcludeFile(path)
	if err != nil {
		return nil, fmt.Errorf("getting excluded users from file: %w", err)
	}

	board.Seed(excluded.Logins()...)
	log.Info("excluding users based on exclude file",
		zap.String("path", path),
		zap.Int("count", len(excluded.Logins())),
	)

	return board, nil
}
