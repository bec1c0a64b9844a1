// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/skatepark/pkg/logger"
	"github.com/okian/skatepark/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	SkaterDependencies
	LeaderboardDependencies
	ArchiveDependencies
	SimulationDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	sessions    *SessionsHandler
	skaters     *SkatersHandler
	leaderboard *LeaderboardHandler
	rank        *RankHandler
	archive     *ArchiveHandler
	simulations *SimulationsHandler
	stats       *StatsHandler
	health      *HealthHandler

	metrics *metrics.Manager
}

// Option configures a Server.
type Option func(*options)

type options struct {
	maxLimit int
	metrics  *metrics.Manager
	gatherer prometheus.Gatherer
	logger   logger.Logger
}

// WithMaxLimit caps list limits such as GET /leaderboard?limit.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithMetrics sets the manager request metrics are recorded on.
func WithMetrics(m *metrics.Manager) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithGatherer sets the registry GET /metrics exposes.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(o *options) {
		if g != nil {
			o.gatherer = g
		}
	}
}

// WithLogger sets the logger server errors are reported to.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	o := options{
		maxLimit: 100,
		metrics:  metrics.Default(),
		gatherer: metrics.GetRegistry(),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	r := responder{logger: o.logger.Named("api")}
	return &Server{
		sessions:    &SessionsHandler{deps: deps, responder: r},
		skaters:     &SkatersHandler{deps: deps, responder: r},
		leaderboard: NewLeaderboardHandler(deps, o.maxLimit, r),
		rank:        NewRankHandler(deps, r),
		archive:     &ArchiveHandler{deps: deps, maxLimit: o.maxLimit, responder: r},
		simulations: &SimulationsHandler{deps: deps, responder: r},
		stats:       NewStatsHandler(deps),
		health:      NewHealthHandler(o.gatherer),
		metrics:     o.metrics,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(s.metrics, h, endpoint))
	}

	route("GET /healthz", "healthz", s.health.HandleHealth)
	mux.Handle("GET /metrics", s.health.Metrics())
	route("GET /stats", "stats", s.stats.HandleStats)

	route("POST /sessions", "sessions", s.sessions.HandleCreate)
	route("GET /sessions", "sessions", s.sessions.HandleList)
	route("GET /sessions/{id}", "session", s.sessions.HandleGet)
	route("DELETE /sessions/{id}", "session", s.sessions.HandleDelete)
	route("POST /sessions/{id}/ticks", "session_ticks", s.sessions.HandleTick)
	route("POST /sessions/{id}/run", "session_run", s.sessions.HandleRun)
	route("POST /sessions/{id}/end", "session_end", s.sessions.HandleEnd)
	route("GET /sessions/{id}/attempts", "session_views", s.sessions.HandleAttempts)
	route("GET /sessions/{id}/timeline", "session_views", s.sessions.HandleTimeline)
	route("GET /sessions/{id}/runs", "session_views", s.sessions.HandleRuns)
	route("GET /sessions/{id}/positions", "session_views", s.sessions.HandlePositions)
	route("GET /sessions/{id}/scoreboard", "session_views", s.sessions.HandleScoreboard)
	route("GET /sessions/{id}/candidates", "session_views", s.sessions.HandleCandidates)
	route("POST /sessions/{id}/recruit", "session_recruit", s.sessions.HandleRecruit)

	route("POST /skaters", "skaters", s.skaters.HandleGenerate)
	route("GET /skaters", "skaters", s.skaters.HandleList)
	route("GET /skaters/{id}", "skater", s.skaters.HandleGet)

	route("GET /leaderboard", "leaderboard", s.leaderboard.HandleGetLeaderboard)
	route("GET /rank/{id}", "rank", s.rank.HandleGetRank)

	route("GET /archive/sessions", "archive", s.archive.HandleList)
	route("GET /archive/sessions/{id}", "archive", s.archive.HandleGet)
	route("GET /archive/sessions/{id}/attempts", "archive", s.archive.HandleAttempts)

	route("POST /simulations", "simulations", s.simulations.HandleSimulate)
	route("POST /batches", "batches", s.simulations.HandleBatch)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// responder turns handler errors into responses.
type responder struct {
	logger logger.Logger
}

func (rs responder) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		rs.logger.Error(r.Context(), "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
