// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	service "github.com/okian/cogtrain/internal/app"
	"github.com/okian/cogtrain/internal/domain/bandit"
	"github.com/okian/cogtrain/internal/domain/model"
	"github.com/okian/cogtrain/pkg/logger"
)

// UserHeader carries the caller's identity.
const UserHeader = "X-User-ID"

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	SubmitScore(ctx context.Context, sub service.Submission) (service.SubmitResult, error)
	ScoreHistory(ctx context.Context, userID string, limit int) ([]model.ScoreRecord, error)
	DomainSummary(ctx context.Context, userID string) (map[string]model.ScoreRecord, error)
	SelectDifficulty(ctx context.Context, userID, gameID string) (bandit.Choice, error)
	GenerateSchedule(ctx context.Context, userID string, days int) (service.Schedule, error)
	LatestSchedule(ctx context.Context, userID string) (service.Schedule, error)
	MarkGameCompleted(ctx context.Context, userID, gameID string) (bool, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	scoresHandler   *ScoresHandler
	practiceHandler *PracticeHandler
	scheduleHandler *ScheduleHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		scoresHandler:   NewScoresHandler(deps),
		practiceHandler: NewPracticeHandler(deps),
		scheduleHandler: NewScheduleHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/api/score", MetricsMiddleware(s.scoresHandler.HandlePostScore, "score"))
	mux.HandleFunc("/api/scores", MetricsMiddleware(s.scoresHandler.HandleGetScores, "scores"))
	mux.HandleFunc("/api/dashboard", MetricsMiddleware(s.scoresHandler.HandleDashboard, "dashboard"))
	mux.HandleFunc("/api/practice/difficulty", MetricsMiddleware(s.practiceHandler.HandleGetDifficulty, "difficulty"))
	mux.HandleFunc("/api/schedule", MetricsMiddleware(s.scheduleHandler.HandleSchedule, "schedule"))
	mux.HandleFunc("/api/schedule/complete", MetricsMiddleware(s.scheduleHandler.HandleComplete, "schedule_complete"))
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

// writeServiceError maps service errors to status codes. Unexpected errors
// are logged and reported without detail.
func writeServiceError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownGame):
		writeError(w, http.StatusBadRequest, "unknown_game", err)
	case errors.Is(err, service.ErrInvalidAction),
		errors.Is(err, service.ErrInvalidContext),
		errors.Is(err, service.ErrBadRequest),
		errors.Is(err, ErrBadRequest),
		errors.Is(err, ErrMissingUser):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	default:
		logger.Get().Named("api").Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

func userID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.Header.Get(UserHeader))
	if id == "" {
		return "", ErrMissingUser
	}
	return id, nil
}

// decodeBody reads a JSON object into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Join(ErrBadRequest, err)
	}
	return nil
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	return false
}
