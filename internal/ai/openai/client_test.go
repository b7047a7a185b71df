package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/spigell/talent-scout/internal/ai"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(Config{APIKey: "key", BaseURL: srv.URL, MaxRetries: retries}, zap.NewNop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	c.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return c
}

func TestCompleteSendsRequestAndReadsUsage(t *testing.T) {
	var got chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != completionsPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Python, Django, PostgreSQL "}}],"usage":{"total_tokens":42}}`))
	}, 0)

	resp, err := c.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: ai.RoleSystem, Content: "extract"},
			{Role: ai.RoleUser, Content: "Need a Python backend engineer"},
		},
		MaxTokens:   50,
		Temperature: ai.Temperature(0.7),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Text != "Python, Django, PostgreSQL" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
	if resp.TokensUsed != 42 {
		t.Fatalf("expected 42 tokens, got %d", resp.TokensUsed)
	}
	if got.Model != defaultModel {
		t.Fatalf("expected default model, got %q", got.Model)
	}
	if got.MaxTokens != 50 || got.Temperature == nil || *got.Temperature != 0.7 {
		t.Fatalf("unexpected request limits: %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != ai.RoleSystem {
		t.Fatalf("unexpected messages: %+v", got.Messages)
	}
}

func TestCompleteOmitsTemperatureWhenUnset(t *testing.T) {
	var raw map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}],"usage":{"total_tokens":1}}`))
	}, 0)

	if _, err := c.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := raw["temperature"]; ok {
		t.Fatalf("temperature must be omitted, got %v", raw["temperature"])
	}
}

func TestCompleteEstimatesMissingUsage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"Go, Kafka"}}]}`))
	}, 0)

	resp, err := c.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "Need a Go engineer who knows Kafka"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TokensUsed <= 0 {
		t.Fatalf("expected positive token estimate, got %d", resp.TokensUsed)
	}
}

func TestCompleteErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantErr  error
		attempts int32
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: ai.ErrUnauthorized, attempts: 1},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ai.ErrRateLimited, attempts: 1},
		{name: "bad request", status: http.StatusBadRequest, attempts: 1},
		{name: "server error retried", status: http.StatusBadGateway, attempts: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"nope"}}`))
			}, 2)

			_, err := c.Complete(context.Background(), ai.CompletionRequest{
				Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if calls.Load() != tt.attempts {
				t.Fatalf("expected %d attempts, got %d", tt.attempts, calls.Load())
			}
		})
	}
}

func TestCompleteRecoversAfterTransientError(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"retry ok"}}],"usage":{"total_tokens":3}}`))
	}, 2)

	resp, err := c.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text != "retry ok" {
		t.Fatalf("unexpected text %q", resp.Text)
	}
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Config{APIKey: "  "}, nil); err == nil {
		t.Fatal("expected error for empty api key")
	}
}
