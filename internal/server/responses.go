package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/spigell/talent-scout/internal/review"
	"github.com/spigell/talent-scout/internal/sourcing"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: err.Error()}})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, sourcing.ErrValidation), errors.Is(err, errBadRequest),
		errors.Is(err, review.ErrInvalidOrder):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, sourcing.ErrAuth):
		return http.StatusBadGateway, "UPSTREAM_AUTH"
	case errors.Is(err, sourcing.ErrRateLimit):
		return http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, sourcing.ErrEmptyResponse):
		return http.StatusBadGateway, "EMPTY_RESPONSE"
	case errors.Is(err, sourcing.ErrExhausted):
		return http.StatusNotFound, "EXHAUSTED"
	case errors.Is(err, errBusy), errors.Is(err, errNoSearch), errors.Is(err, review.ErrNoCurrent):
		return http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}
