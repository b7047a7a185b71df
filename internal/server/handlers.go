package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/talent-scout/internal/sourcing"
)

var (
	errBusy       = errors.New("a search request is already in progress")
	errNoSearch   = errors.New("start a search first")
	errBadRequest = errors.New("bad request")
)

type searchRequest struct {
	Description string `json:"description" validate:"required,max=20000"`
}

type reorderRequest struct {
	Order []string `json:"order" validate:"required,dive,required"`
}

type searchResponse struct {
	SessionID string              `json:"session_id"`
	Keywords  []string            `json:"keywords"`
	Candidate *sourcing.Candidate `json:"candidate"`
}

type decisionResponse struct {
	Decided   string              `json:"decided"`
	Candidate *sourcing.Candidate `json:"candidate"`
	Message   string              `json:"message,omitempty"`
}

type shortlistResponse struct {
	Shortlist []*sourcing.Candidate `json:"shortlist"`
	Rejected  []string              `json:"rejected"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}

	if !s.busy.TryLock() {
		writeError(w, errBusy)
		return
	}
	defer s.busy.Unlock()

	keywords, err := s.sourcer.ExtractKeywords(r.Context(), req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	s.keywords = keywords
	s.board.Reset()

	candidate, err := s.sourcer.FetchNextCandidate(r.Context(), keywords, s.board.Exclusions())
	if err != nil {
		writeError(w, err)
		return
	}
	s.board.Show(candidate)

	writeJSON(w, http.StatusOK, searchResponse{
		SessionID: s.sourcer.Session().ID(),
		Keywords:  keywords,
		Candidate: candidate,
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	if !s.busy.TryLock() {
		writeError(w, errBusy)
		return
	}
	defer s.busy.Unlock()

	if len(s.keywords) == 0 {
		writeError(w, errNoSearch)
		return
	}

	candidate, err := s.sourcer.FetchNextCandidate(r.Context(), s.keywords, s.board.Exclusions())
	if err != nil {
		writeError(w, err)
		return
	}
	s.board.Show(candidate)

	writeJSON(w, http.StatusOK, candidate)
}

func (s *Server) handleAccept(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, func() (string, error) {
		c, err := s.board.Accept()
		if err != nil {
			return "", err
		}
		return c.Login, nil
	})
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	s.decide(w, r, s.board.Reject)
}

// decide applies a board decision and moves on to the next candidate. Running
// out of candidates after a decision is not an error for the caller.
func (s *Server) decide(w http.ResponseWriter, r *http.Request, apply func() (string, error)) {
	if !s.busy.TryLock() {
		writeError(w, errBusy)
		return
	}
	defer s.busy.Unlock()

	login, err := apply()
	if err != nil {
		writeError(w, err)
		return
	}
	resp := decisionResponse{Decided: login}

	candidate, err := s.sourcer.FetchNextCandidate(r.Context(), s.keywords, s.board.Exclusions())
	switch {
	case errors.Is(err, sourcing.ErrExhausted):
		resp.Message = err.Error()
	case err != nil:
		writeError(w, err)
		return
	default:
		s.board.Show(candidate)
		resp.Candidate = candidate
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShortlist(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, shortlistResponse{
		Shortlist: s.board.Shortlist(),
		Rejected:  s.board.Rejected(),
	})
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.board.Reorder(req.Order); err != nil {
		writeError(w, err)
		return
	}

	s.handleShortlist(w, r)
}

func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	s.busy.Lock()
	defer s.busy.Unlock()

	writeJSON(w, http.StatusOK, s.sourcer.Session().Snapshot())
}

// decode reads a JSON body into v and validates it, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, fmt.Errorf("%w: invalid json", errBadRequest))
		return false
	}

	if err := s.validate.Struct(v); err != nil {
		var fields []string
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+":"+fe.Tag())
			}
		}
		s.logger.Debug("request validation failed", zap.Strings("fields", fields))
		writeError(w, fmt.Errorf("%w: invalid %s", errBadRequest, strings.Join(fields, ", ")))
		return false
	}

	return true
}
