// Package sourcing finds developers in the code-hosting directory that fit a
// job description and prepares them for review one at a time.
package sourcing

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-scout/internal/ai"
	"github.com/spigell/talent-scout/internal/github"
	"github.com/spigell/talent-scout/internal/logger"
	"github.com/spigell/talent-scout/internal/metrics"
)

type Options struct {
	// Model is passed to the text service with every request.
	Model string
	// DailyTokenLimit caps the tokens a session may spend on justifications.
	DailyTokenLimit int
}

// Pipeline owns one Session and is not safe for concurrent use.
type Pipeline struct {
	directory Directory
	extractor *KeywordExtractor
	enricher  *Enricher
	session   *Session
	metrics   *metrics.Recorder
	logger    *zap.Logger
}

func New(directory Directory, completer ai.Completer, opts Options, recorder *metrics.Recorder, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.DailyTokenLimit <= 0 {
		opts.DailyTokenLimit = DefaultDailyTokenLimit
	}
	if opts.Model == "" && completer != nil {
		opts.Model = completer.Model()
	}

	justifier := NewJustifier(completer, opts.Model, opts.DailyTokenLimit, log)

	return &Pipeline{
		directory: directory,
		extractor: NewKeywordExtractor(completer, opts.Model, log),
		enricher:  NewEnricher(directory, justifier, opts.DailyTokenLimit, log),
		session:   NewSession(),
		metrics:   recorder,
		logger:    log,
	}
}

func (p *Pipeline) Session() *Session {
	return p.session
}

// ExtractKeywords starts a new session for jobDescription and returns at most
// MaxKeywords search terms, the primary term first.
func (p *Pipeline) ExtractKeywords(ctx context.Context, jobDescription string) ([]string, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, validationError(msgEmptyDescription)
	}

	p.session.Reset(jobDescription)
	p.metrics.Tokens(0, 0)

	log := logger.WithSession(p.logger, p.session.ID())
	log.Info("new search session")

	keywords, err := p.extractor.Extract(ctx, p.session, jobDescription)
	p.metrics.Tokens(p.session.TokensUsed(), p.session.TokensUsed())
	if err != nil {
		return nil, err
	}

	p.session.keywords = keywords
	return append([]string(nil), keywords...), nil
}

// FetchNextCandidate returns the next unseen candidate with a positive score.
// exclude is merged into the seen set first. The search resumes at the
// session's page and tier and relaxes until every tier is used up.
func (p *Pipeline) FetchNextCandidate(ctx context.Context, keywords, exclude []string) (*Candidate, error) {
	if len(keywords) == 0 {
		return nil, validationError(msgNoKeywords)
	}

	p.session.MarkSeen(exclude...)

	log := logger.WithSession(p.logger, p.session.ID())
	before := p.session.TokensUsed()
	defer func() {
		p.metrics.Tokens(p.session.TokensUsed()-before, p.session.TokensUsed())
	}()

	for attempt := 0; attempt < MaxPages*len(Tiers); attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidate, err := p.scan(ctx, log, keywords)
		if err != nil {
			return nil, err
		}
		if candidate != nil {
			p.metrics.CandidateReturned()
			log.Info("candidate found",
				zap.String(logger.FieldLogin, candidate.Login),
				zap.Float64("score", candidate.MatchScore),
				zap.Int("tier", p.session.Tier()),
				zap.Int("page", p.session.Page()),
			)
			return candidate, nil
		}

		if !p.session.advance() {
			break
		}
		log.Debug("advancing search", zap.Int("tier", p.session.Tier()), zap.Int("page", p.session.Page()))
	}

	log.Info("search exhausted", zap.Int("seen", p.session.SeenCount()))
	return nil, &Error{Kind: ErrExhausted, Message: msgExhausted}
}

// scan queries the current page and returns the first qualifying user, or nil
// when the page has none.
func (p *Pipeline) scan(ctx context.Context, log *zap.Logger, keywords []string) (*Candidate, error) {
	tier := Tiers[p.session.Tier()]
	query := github.UserQuery{
		Language:     keywords[0],
		MinFollowers: tier.MinFollowers,
		MinRepos:     tier.MinRepos,
	}.String()

	p.metrics.DirectoryQuery(p.session.Tier())
	users, err := p.directory.SearchUsers(ctx, &github.SearchParams{
		Query:   query,
		Sort:    github.SortRepositories,
		Order:   github.OrderDesc,
		PerPage: PageSize,
		Page:    p.session.Page(),
	})
	if err != nil {
		log.Error("searching users", zap.String("query", query), zap.Error(err))
		return nil, searchError(err)
	}

	log.Debug("search page",
		zap.String("query", query),
		zap.Int("page", p.session.Page()),
		zap.Int("results", users.Len()),
		zap.Strings("logins", users.Logins()),
	)

	for _, item := range users.Items {
		if item == nil || item.Login == "" || p.session.Seen(item.Login) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if cached := p.session.cached(item.Login); cached != nil {
			p.session.MarkSeen(item.Login)
			return cached, nil
		}

		candidate, err := p.processCandidate(ctx, log, keywords, item.Login)
		if err != nil {
			return nil, err
		}
		if candidate != nil {
			p.session.MarkSeen(item.Login)
			p.session.store(candidate)
			return candidate, nil
		}
	}

	return nil, nil
}

// processCandidate enriches and scores one user. A user that does not qualify
// is recorded as a skip and yields nil. Organizations and non-matching users
// are not enriched again in this session; failed users are retried on a later
// scan. Only a done context is returned as an error.
func (p *Pipeline) processCandidate(ctx context.Context, log *zap.Logger, keywords []string, login string) (*Candidate, error) {
	log = log.With(zap.String(logger.FieldLogin, login))

	candidate, err := p.enricher.Enrich(ctx, p.session, login)
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, ErrOrganization):
		log.Debug("skipping organization")
		p.skip(login, SkipOrganization, nil)
		p.session.MarkSeen(login)
		return nil, nil
	case err != nil:
		log.Warn("enrichment failed, skipping", zap.Error(err))
		p.skip(login, SkipFailed, err)
		return nil, nil
	}

	candidate.MatchScore = Score(candidate.Skills, keywords, p.session.Tier())
	if candidate.MatchScore <= 0 {
		log.Debug("no keyword match", zap.Strings("skills", candidate.Skills))
		p.skip(login, SkipNoMatch, nil)
		p.session.MarkSeen(login)
		return nil, nil
	}

	return candidate, nil
}

func (p *Pipeline) skip(login string, reason SkipReason, err error) {
	p.session.recordSkip(login, reason, err)
	p.metrics.CandidateSkipped(string(reason))
}

func searchError(err error) error {
	switch {
	case errors.Is(err, github.ErrRateLimited):
		return &Error{Kind: ErrRateLimit, Message: msgRateLimited, Err: err}
	case errors.Is(err, github.ErrUnauthorized):
		return &Error{Kind: ErrAuth, Message: msgInvalidGitHubToken, Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	message := err.Error()
	if strings.TrimSpace(message) == "" {
		message = msgUnexpected
	}
	return &Error{Message: message, Err: err}
}
