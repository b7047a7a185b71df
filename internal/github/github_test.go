package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(context.Background(), zap.NewNop(), "")
	c.APIURL = srv.URL
	return c
}

func TestUserQueryString(t *testing.T) {
	q := UserQuery{Language: "Python", MinFollowers: 50, MinRepos: 10}
	if got := q.String(); got != "language:python followers:>50 repos:>10" {
		t.Fatalf("unexpected query %q", got)
	}
}

func TestBuildParams(t *testing.T) {
	q := buildParams(&SearchParams{
		Query:   "language:go followers:>20 repos:>5",
		Sort:    SortRepositories,
		Order:   OrderDesc,
		PerPage: 10,
		Page:    2,
	})

	want := map[string]string{
		"q":        "language:go followers:>20 repos:>5",
		"sort":     "repositories",
		"order":    "desc",
		"per_page": "10",
		"page":     "2",
	}
	for key, value := range want {
		if got := q.Get(key); got != value {
			t.Fatalf("param %s = %q, want %q", key, got, value)
		}
	}

	if empty := buildParams(&SearchParams{}); len(empty) != 0 {
		t.Fatalf("expected zero values to be skipped, got %v", empty)
	}
}

func TestSearchUsers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(SearchUsersPath, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "language:python followers:>50 repos:>10" {
			t.Errorf("unexpected query %q", r.URL.Query().Get("q"))
		}
		if r.Header.Get("Accept") != acceptHeader {
			t.Errorf("unexpected accept header %q", r.Header.Get("Accept"))
		}
		w.Write([]byte(`{"total_count":2,"items":[
			{"login":"alice","type":"User","html_url":"https://github.com/alice","score":1.0},
			{"login":"acme","type":"Organization","html_url":"https://github.com/acme"}
		]}`))
	})

	users, err := newTestClient(t, mux).SearchUsers(context.Background(), &SearchParams{
		Query: UserQuery{Language: "python", MinFollowers: 50, MinRepos: 10}.String(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if users.Total != 2 || users.Len() != 2 {
		t.Fatalf("unexpected users: %+v", users)
	}
	if !reflect.DeepEqual(users.Logins(), []string{"alice", "acme"}) {
		t.Fatalf("unexpected logins %v", users.Logins())
	}
	if users.Items[1].Type != TypeOrganization {
		t.Fatalf("expected organization type, got %q", users.Items[1].Type)
	}
}

func TestGetUserAndRepos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/alice", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"login":"alice","type":"User","html_url":"https://github.com/alice","avatar_url":"https://avatars/alice","bio":null}`))
	})
	mux.HandleFunc("/users/alice/repos", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sort") != SortPushed || r.URL.Query().Get("per_page") != "5" {
			t.Errorf("unexpected repo query %v", r.URL.Query())
		}
		w.Write([]byte(`[{"name":"api","description":null,"fork":false},{"name":"fork","description":"x","fork":true}]`))
	})
	mux.HandleFunc("/repos/alice/api/languages", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"Python": 9000, "Shell": 120, "Dockerfile": 10}`))
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	user, err := c.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Bio != "" || user.IsOrganization() {
		t.Fatalf("unexpected user %+v", user)
	}

	repos, err := c.ListRepos(ctx, "alice", ListReposParams{Sort: SortPushed, PerPage: 5})
	if err != nil {
		t.Fatalf("list repos: %v", err)
	}
	if len(repos) != 2 || repos[0].Description != "" || !repos[1].Fork {
		t.Fatalf("unexpected repos %+v", repos)
	}

	langs, err := c.ListLanguages(ctx, "alice", "api")
	if err != nil {
		t.Fatalf("list languages: %v", err)
	}
	if !reflect.DeepEqual(langs, []string{"Python", "Shell", "Dockerfile"}) {
		t.Fatalf("expected languages in response order, got %v", langs)
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		header  string
		body    string
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"message":"Bad credentials"}`, wantErr: ErrUnauthorized},
		{name: "primary rate limit", status: http.StatusForbidden, header: "0", body: `{"message":"API rate limit exceeded for 1.2.3.4"}`, wantErr: ErrRateLimited},
		{name: "secondary rate limit", status: http.StatusForbidden, header: "10", body: `{"message":"You have exceeded a secondary rate limit"}`, wantErr: ErrRateLimited},
		{name: "too many requests", status: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "not found", status: http.StatusNotFound, body: `{"message":"Not Found"}`, wantErr: ErrNotFound},
		{name: "forbidden", status: http.StatusForbidden, header: "10", body: `{"message":"Resource not accessible"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/users/bob", func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set("X-RateLimit-Remaining", tt.header)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := newTestClient(t, mux).GetUser(context.Background(), "bob")
			if err == nil {
				t.Fatal("expected error")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != tt.status {
				t.Fatalf("expected APIError with status %d, got %v", tt.status, err)
			}

			if tt.wantErr == nil {
				for _, sentinel := range []error{ErrUnauthorized, ErrRateLimited, ErrNotFound} {
					if errors.Is(err, sentinel) {
						t.Fatalf("did not expect %v", sentinel)
					}
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
