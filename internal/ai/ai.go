// Package ai defines the narrow text completion contract used by the sourcing pipeline.
package ai

import (
	"context"
	"errors"
)

// Roles understood by every provider.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

var (
	// ErrUnauthorized is returned when the provider rejects the supplied credentials.
	ErrUnauthorized = errors.New("text service rejected credentials")
	// ErrRateLimited is returned when the provider throttles the caller.
	ErrRateLimited = errors.New("text service rate limited")
)

type Message struct {
	Role    string
	Content string
}

// CompletionRequest describes one call to a text completion service.
// An empty Model means the provider default. A nil Temperature leaves the provider default.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature *float32
}

type Completion struct {
	Text       string
	TokensUsed int
}

// Completer is implemented by every text provider.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	Model() string
}

// Temperature is a helper for building requests inline.
func Temperature(v float32) *float32 {
	return &v
}
