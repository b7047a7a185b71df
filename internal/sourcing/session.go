package sourcing

import (
	"github.com/google/uuid"
)

type SkipReason string

const (
	SkipOrganization SkipReason = "organization"
	SkipNoMatch      SkipReason = "no_match"
	SkipFailed       SkipReason = "enrichment_failed"
)

// Skip records why a search hit did not become a candidate.
type Skip struct {
	Login  string     `json:"login"`
	Reason SkipReason `json:"reason"`
	Tier   int        `json:"tier"`
	Page   int        `json:"page"`
	Error  string     `json:"error,omitempty"`
}

// Session is the mutable state of one search. It is owned by a Pipeline and
// is not safe for concurrent use.
type Session struct {
	id             string
	jobDescription string
	keywords       []string
	page           int
	tier           int
	seen           map[string]struct{}
	cache          map[string]*Candidate
	tokensUsed     int
	skips          []Skip
}

func NewSession() *Session {
	s := &Session{}
	s.Reset("")
	return s
}

// Reset starts a new search for the job description.
func (s *Session) Reset(jobDescription string) {
	s.id = uuid.NewString()
	s.jobDescription = jobDescription
	s.keywords = nil
	s.page = 1
	s.tier = 0
	s.seen = make(map[string]struct{})
	s.cache = make(map[string]*Candidate)
	s.tokensUsed = 0
	s.skips = nil
}

func (s *Session) ID() string             { return s.id }
func (s *Session) JobDescription() string { return s.jobDescription }
func (s *Session) Page() int              { return s.page }
func (s *Session) Tier() int              { return s.tier }
func (s *Session) TokensUsed() int        { return s.tokensUsed }

func (s *Session) Keywords() []string {
	return append([]string(nil), s.keywords...)
}

func (s *Session) Skips() []Skip {
	return append([]Skip(nil), s.skips...)
}

func (s *Session) Seen(login string) bool {
	_, ok := s.seen[login]
	return ok
}

func (s *Session) SeenCount() int {
	return len(s.seen)
}

// MarkSeen excludes logins from the rest of the session.
func (s *Session) MarkSeen(logins ...string) {
	for _, login := range logins {
		if login == "" {
			continue
		}
		s.seen[login] = struct{}{}
	}
}

func (s *Session) AddTokens(n int) {
	if n > 0 {
		s.tokensUsed += n
	}
}

func (s *Session) cached(login string) *Candidate {
	return s.cache[login]
}

func (s *Session) store(c *Candidate) {
	s.cache[c.Login] = c
}

func (s *Session) recordSkip(login string, reason SkipReason, err error) {
	skip := Skip{Login: login, Reason: reason, Tier: s.tier, Page: s.page}
	if err != nil {
		skip.Error = err.Error()
	}
	s.skips = append(s.skips, skip)
}

// advance moves the cursor to the next page, then to the first page of the
// next tier. It reports false once the last page of the last tier is used up.
func (s *Session) advance() bool {
	if s.page < MaxPages {
		s.page++
		return true
	}
	if s.tier < len(Tiers)-1 {
		s.tier++
		s.page = 1
		return true
	}
	return false
}

// Snapshot is a read-only view of the session for callers and logs.
type Snapshot struct {
	ID         string   `json:"id"`
	Keywords   []string `json:"keywords"`
	Tier       int      `json:"tier"`
	Page       int      `json:"page"`
	TokensUsed int      `json:"tokens_used"`
	Seen       int      `json:"seen"`
	Cached     int      `json:"cached"`
	Skips      []Skip   `json:"skips"`
}

func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:         s.id,
		Keywords:   s.Keywords(),
		Tier:       s.tier,
		Page:       s.page,
		TokensUsed: s.tokensUsed,
		Seen:       len(s.seen),
		Cached:     len(s.cache),
		Skips:      s.Skips(),
	}
}
