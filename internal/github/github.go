// Package github is a small client for the GitHub REST endpoints used to source candidates:
// user search, user lookup, repositories by user and repository languages.
package github

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	apiURL         = "https://api.github.com"
	userAgent      = "spigell/talent-scout"
	defaultTimeout = 15 * time.Second
)

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New builds a client. An empty token gives unauthenticated access with the
// much lower anonymous rate limit.
func New(ctx context.Context, logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := &http.Client{}
	if token = strings.TrimSpace(token); token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	httpClient.Timeout = defaultTimeout

	return &Client{
		logger:     logger,
		HTTPClient: httpClient,
		UserAgent:  userAgent,
		APIURL:     apiURL,
	}
}
