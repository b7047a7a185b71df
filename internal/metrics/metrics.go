// Package metrics exposes prometheus collectors for the sourcing pipeline.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "talent_scout"

type Recorder struct {
	queries       *prometheus.CounterVec
	candidates    prometheus.Counter
	skips         *prometheus.CounterVec
	tokens        prometheus.Counter
	sessionTokens prometheus.Gauge
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "directory_queries_total",
			Help:      "User search queries issued, by relaxation tier.",
		}, []string{"tier"}),
		candidates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_returned_total",
			Help:      "Candidates returned to the reviewer.",
		}),
		skips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_skipped_total",
			Help:      "Search hits that did not become candidates, by reason.",
		}, []string{"reason"}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_tokens_total",
			Help:      "Language model tokens consumed.",
		}),
		sessionTokens: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_tokens_used",
			Help:      "Tokens consumed by the current search session.",
		}),
	}

	reg.MustRegister(r.queries, r.candidates, r.skips, r.tokens, r.sessionTokens)
	return r
}

func (r *Recorder) DirectoryQuery(tier int) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(strconv.Itoa(tier)).Inc()
}

func (r *Recorder) CandidateReturned() {
	if r == nil {
		return
	}
	r.candidates.Inc()
}

func (r *Recorder) CandidateSkipped(reason string) {
	if r == nil {
		return
	}
	r.skips.WithLabelValues(reason).Inc()
}

// Tokens adds the tokens spent since the last call and sets the session total.
func (r *Recorder) Tokens(delta, sessionTotal int) {
	if r == nil {
		return
	}
	if delta > 0 {
		r.tokens.Add(float64(delta))
	}
	r.sessionTokens.Set(float64(sessionTotal))
}
