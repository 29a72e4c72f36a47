// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	service "github.com/okian/contestboard/internal/app"
	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/types"
	"github.com/okian/contestboard/pkg/logger"
)

// Default limits applied when the server is built without explicit values.
const (
	defaultMaxLimit = 500
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LeaderboardDependencies
	OverallDependencies
	EmployeeDependencies
	DirectoryDependencies
	RefreshDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxLimit caps the ?limit query parameter.
func WithMaxLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxLimit int

	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	overallHandler     *OverallHandler
	employeeHandler    *EmployeeHandler
	directoryHandler   *DirectoryHandler
	refreshHandler     *RefreshHandler
	exportHandler      *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.leaderboardHandler = NewLeaderboardHandler(deps, s.maxLimit)
	s.overallHandler = NewOverallHandler(deps, s.maxLimit)
	s.employeeHandler = NewEmployeeHandler(deps)
	s.directoryHandler = NewDirectoryHandler(deps)
	s.refreshHandler = NewRefreshHandler(deps)
	s.exportHandler = NewExportHandler(deps, s.maxLimit)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.Handle(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint)))
	}
	route("/healthz", "healthz", s.healthHandler.HandleHealth)
	route("/metrics", "metrics", s.healthHandler.HandleMetrics)
	route("/stats", "stats", s.statsHandler.HandleStats)
	route("/leaderboard", "leaderboard", s.leaderboardHandler.HandleGetLeaderboard)
	route("/report", "report", s.leaderboardHandler.HandleGetReport)
	route("/overall", "overall", s.overallHandler.HandleGetOverall)
	route("/employees/", "employees", s.employeeHandler.HandleGetEmployee)
	route("/companies", "companies", s.directoryHandler.HandleGetCompanies)
	route("/suggest", "suggest", s.directoryHandler.HandleGetSuggest)
	route("/refresh", "refresh", s.refreshHandler.HandlePostRefresh)
	route("/export.xlsx", "export", s.exportHandler.HandleGetExport)
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

// classify maps an error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrUnknownContest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrEmployeeNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrSourceUnavailable):
		return http.StatusBadGateway, "source_unavailable"
	case errors.Is(err, service.ErrSchema):
		return http.StatusInternalServerError, "schema_error"
	case errors.Is(err, service.ErrNotConfigured):
		return http.StatusInternalServerError, "not_configured"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError classifies err, logs server-side failures and writes the body.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		logger.Named("api").Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// parseContest reads the required ?contest parameter.
func parseContest(op string, r *http.Request) (model.ContestType, error) {
	raw := r.URL.Query().Get("contest")
	if raw == "" {
		return "", WrapKind(op, ErrBadRequest, errors.New("missing contest"))
	}
	c, err := model.ParseContestType(raw)
	if err != nil {
		return "", Wrap(op, err)
	}
	return c, nil
}

// parseLimit reads the optional ?limit parameter. An absent limit is 0,
// which lets the service apply its default.
func parseLimit(op string, r *http.Request, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, WrapKind(op, ErrBadRequest, errors.New("limit must be a positive integer"))
	}
	if n > maxLimit {
		return 0, NewKind(op, ErrLimitExceeded)
	}
	return n, nil
}
