// Package review keeps the state a reviewer builds while going through
// candidates: the one on screen, the accepted shortlist and rejected names.
package review

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/spigell/talent-scout/internal/sourcing"
)

var (
	ErrNoCurrent    = errors.New("no candidate under review")
	ErrInvalidOrder = errors.New("order must list every shortlisted username exactly once")
)

type Board struct {
	mu        sync.Mutex
	current   *sourcing.Candidate
	shortlist []*sourcing.Candidate
	rejected  []string
	// seeded names survive Reset.
	seeded []string
}

func NewBoard() *Board {
	return &Board{}
}

// Show puts c under review, replacing any previous candidate.
func (b *Board) Show(c *sourcing.Candidate) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = c
}

func (b *Board) Current() *sourcing.Candidate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Accept moves the current candidate to the end of the shortlist.
func (b *Board) Accept() (*sourcing.Candidate, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return nil, ErrNoCurrent
	}
	c := b.current
	b.shortlist = append(b.shortlist, c)
	b.current = nil
	return c, nil
}

// Reject records the current candidate's username and clears it.
func (b *Board) Reject() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return "", ErrNoCurrent
	}
	login := b.current.Login
	b.addRejected(login)
	b.current = nil
	return login, nil
}

// Seed pre-loads rejected usernames, e.g. from an exclude file. Seeded names
// are kept across Reset.
func (b *Board) Seed(rejected ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, login := range rejected {
		if login == "" {
			continue
		}
		b.seeded = append(b.seeded, login)
		b.addRejected(login)
	}
}

func (b *Board) addRejected(login string) {
	if login == "" {
		return
	}
	for _, existing := range b.rejected {
		if existing == login {
			return
		}
	}
	b.rejected = append(b.rejected, login)
}

func (b *Board) Shortlist() []*sourcing.Candidate {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*sourcing.Candidate(nil), b.shortlist...)
}

func (b *Board) Rejected() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.rejected...)
}

// Reorder rearranges the shortlist to follow usernames, which must be a
// permutation of the shortlisted logins.
func (b *Board) Reorder(usernames []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(usernames) != len(b.shortlist) {
		return ErrInvalidOrder
	}

	byLogin := make(map[string]*sourcing.Candidate, len(b.shortlist))
	for _, c := range b.shortlist {
		byLogin[c.Login] = c
	}

	ordered := make([]*sourcing.Candidate, 0, len(usernames))
	for _, login := range usernames {
		c, ok := byLogin[login]
		if !ok {
			return ErrInvalidOrder
		}
		delete(byLogin, login)
		ordered = append(ordered, c)
	}

	b.shortlist = ordered
	return nil
}

// Move shifts the shortlist entry at index from to index to.
func (b *Board) Move(from, to int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.shortlist)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("move %d -> %d: %w", from, to, ErrInvalidOrder)
	}

	c := b.shortlist[from]
	b.shortlist = append(b.shortlist[:from], b.shortlist[from+1:]...)
	b.shortlist = append(b.shortlist[:to], append([]*sourcing.Candidate{c}, b.shortlist[to:]...)...)
	return nil
}

// Exclusions lists every username the pipeline must not return again:
// rejected, accepted and the one under review.
func (b *Board) Exclusions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.rejected)+len(b.shortlist)+1)
	out = append(out, b.rejected...)
	for _, c := range b.shortlist {
		out = append(out, c.Login)
	}
	if b.current != nil && b.current.Login != "" {
		out = append(out, b.current.Login)
	}
	return out
}

// Reset clears the board for a new search, keeping only seeded names.
func (b *Board) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = nil
	b.shortlist = nil
	b.rejected = nil
	for _, login := range b.seeded {
		b.addRejected(login)
	}
}

// Export writes the shortlist as indented JSON to a new temporary file in dir
// and returns its path.
func (b *Board) Export(dir string) (string, error) {
	data, err := json.MarshalIndent(b.Shortlist(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal shortlist: %w", err)
	}

	f, err := os.CreateTemp(dir, "shortlist-*.json")
	if err != nil {
		return "", fmt.Errorf("create shortlist file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write shortlist file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("close shortlist file: %w", err)
	}

	return f.Name(), nil
}
