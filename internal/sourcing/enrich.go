package sourcing

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talent-scout/internal/github"
	"github.com/spigell/talent-scout/internal/logger"
)

// ErrOrganization is returned by Enrich for organization accounts.
var ErrOrganization = errors.New("account is an organization")

// Directory is the part of the code-hosting API the pipeline depends on.
type Directory interface {
	SearchUsers(ctx context.Context, params *github.SearchParams) (*github.Users, error)
	GetUser(ctx context.Context, login string) (*github.User, error)
	ListRepos(ctx context.Context, login string, params github.ListReposParams) ([]*github.Repository, error)
	ListLanguages(ctx context.Context, owner, repo string) ([]string, error)
}

// Enricher turns a username into an unscored Candidate.
type Enricher struct {
	directory Directory
	justifier *Justifier
	limit     int
	logger    *zap.Logger
}

func NewEnricher(directory Directory, justifier *Justifier, dailyLimit int, logger *zap.Logger) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyTokenLimit
	}
	return &Enricher{directory: directory, justifier: justifier, limit: dailyLimit, logger: logger}
}

// Enrich returns ErrOrganization for organization accounts and any directory
// error for the user or repository listing. Language lookups never fail the call.
func (e *Enricher) Enrich(ctx context.Context, sess *Session, login string) (*Candidate, error) {
	log := e.logger.With(zap.String(logger.FieldLogin, login))

	account, err := e.directory.GetUser(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", login, err)
	}
	if account.IsOrganization() {
		return nil, ErrOrganization
	}

	var (
		user  *github.User
		repos []*github.Repository
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = e.directory.GetUser(gctx, login)
		if err != nil {
			return fmt.Errorf("get user %s: %w", login, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		repos, err = e.directory.ListRepos(gctx, login, github.ListReposParams{
			Sort:    github.SortPushed,
			PerPage: ReposPerCandidate,
		})
		if err != nil {
			return fmt.Errorf("list repos of %s: %w", login, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	owned := make([]*github.Repository, 0, len(repos))
	for _, repo := range repos {
		if repo == nil || repo.Fork {
			continue
		}
		owned = append(owned, repo)
		if len(owned) == ReposPerCandidate {
			break
		}
	}

	repositories := e.languages(ctx, log, login, owned)

	candidate := &Candidate{
		Login:        user.Login,
		Name:         user.Name,
		ProfileURL:   user.HTMLURL,
		Summary:      user.Bio,
		AvatarURL:    user.AvatarURL,
		Skills:       skillsOf(repositories),
		Repositories: repositories,
	}
	if candidate.Login == "" {
		candidate.Login = login
	}
	if candidate.Name == "" {
		candidate.Name = candidate.Login
	}

	if sess.TokensUsed() >= e.limit {
		log.Debug("token budget spent, skipping justification", zap.Int("tokens_used", sess.TokensUsed()))
		candidate.Justification = TokenLimitMessage
	} else {
		candidate.Justification = e.justifier.Justify(ctx, sess, candidate.Login, repositories)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return candidate, nil
}

// languages looks up every repository concurrently. A failed lookup leaves an
// empty language list for that repository only.
func (e *Enricher) languages(ctx context.Context, log *zap.Logger, owner string, repos []*github.Repository) []Repository {
	result := make([]Repository, len(repos))

	var g errgroup.Group
	for i, repo := range repos {
		result[i] = Repository{Name: repo.Name, Description: repo.Description, Languages: []string{}}
		g.Go(func() error {
			langs, err := e.directory.ListLanguages(ctx, owner, repo.Name)
			if err != nil {
				log.Debug("listing languages", zap.String("repo", repo.Name), zap.Error(err))
				return nil
			}
			if langs != nil {
				result[i].Languages = langs
			}
			return nil
		})
	}
	_ = g.Wait()

	return result
}
