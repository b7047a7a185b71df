package sourcing

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spigell/talent-scout/internal/ai"
	"github.com/spigell/talent-scout/internal/github"
)

type fakeCompleter struct {
	mu        sync.Mutex
	responses []*ai.Completion
	errs      []error
	requests  []ai.CompletionRequest
	// onComplete runs before every call.
	onComplete func()
}

func (f *fakeCompleter) Complete(_ context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := len(f.requests)
	f.requests = append(f.requests, req)
	if f.onComplete != nil {
		f.onComplete()
	}

	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) && f.responses[i] != nil {
		return f.responses[i], nil
	}
	return &ai.Completion{Text: "Solid fit.", TokensUsed: 10}, nil
}

func (f *fakeCompleter) Model() string { return "test-model" }

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type fakeDirectory struct {
	mu sync.Mutex

	// pages maps "query|page" to search hits.
	pages     map[string][]*github.UserSummary
	users     map[string]*github.User
	repos     map[string][]*github.Repository
	languages map[string][]string

	searchErr    error
	userErr      map[string]error
	languagesErr map[string]error

	searches  []github.SearchParams
	userCalls map[string]int

	// onGetUser runs before every user lookup.
	onGetUser func(login string)
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		pages:        make(map[string][]*github.UserSummary),
		users:        make(map[string]*github.User),
		repos:        make(map[string][]*github.Repository),
		languages:    make(map[string][]string),
		userErr:      make(map[string]error),
		languagesErr: make(map[string]error),
		userCalls:    make(map[string]int),
	}
}

func pageKey(query string, page int) string {
	return fmt.Sprintf("%s|%d", query, page)
}

// addUser registers a user account with one repository per language list.
func (f *fakeDirectory) addUser(login string, languages ...[]string) {
	f.users[login] = &github.User{
		Login:   login,
		Type:    "User",
		HTMLURL: "https://github.com/" + login,
		Bio:     login + " bio",
	}
	for i, langs := range languages {
		name := fmt.Sprintf("%s-repo-%d", login, i)
		f.repos[login] = append(f.repos[login], &github.Repository{Name: name})
		f.languages[login+"/"+name] = langs
	}
}

func (f *fakeDirectory) addPage(query string, page int, logins ...string) {
	for _, login := range logins {
		typ := "User"
		if u, ok := f.users[login]; ok {
			typ = u.Type
		}
		f.pages[pageKey(query, page)] = append(f.pages[pageKey(query, page)], &github.UserSummary{Login: login, Type: typ})
	}
}

func (f *fakeDirectory) SearchUsers(_ context.Context, params *github.SearchParams) (*github.Users, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.searches = append(f.searches, *params)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	items := f.pages[pageKey(params.Query, params.Page)]
	return &github.Users{Total: len(items), Items: items}, nil
}

func (f *fakeDirectory) GetUser(_ context.Context, login string) (*github.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.userCalls[login]++
	if f.onGetUser != nil {
		f.onGetUser(login)
	}
	if err := f.userErr[login]; err != nil {
		return nil, err
	}
	user, ok := f.users[login]
	if !ok {
		return nil, github.ErrNotFound
	}
	return user, nil
}

func (f *fakeDirectory) ListRepos(_ context.Context, login string, params github.ListReposParams) ([]*github.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if params.Sort != github.SortPushed {
		return nil, errors.New("unexpected sort " + params.Sort)
	}
	repos := f.repos[login]
	if params.PerPage > 0 && len(repos) > params.PerPage {
		repos = repos[:params.PerPage]
	}
	return repos, nil
}

func (f *fakeDirectory) ListLanguages(_ context.Context, owner, repo string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := owner + "/" + repo
	if err := f.languagesErr[key]; err != nil {
		return nil, err
	}
	return f.languages[key], nil
}

func (f *fakeDirectory) queries() []github.SearchParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]github.SearchParams(nil), f.searches...)
}
