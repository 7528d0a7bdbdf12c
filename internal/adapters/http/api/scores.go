package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/okian/cogtrain/internal/app"
	"github.com/okian/cogtrain/internal/domain/model"
)

const dashboardRecent = 10

// ScoreDependencies defines what score handlers need.
type ScoreDependencies interface {
	SubmitScore(ctx context.Context, sub service.Submission) (service.SubmitResult, error)
	ScoreHistory(ctx context.Context, userID string, limit int) ([]model.ScoreRecord, error)
	DomainSummary(ctx context.Context, userID string) (map[string]model.ScoreRecord, error)
	LatestSchedule(ctx context.Context, userID string) (service.Schedule, error)
}

// ScoresHandler handles score intake and history requests.
type ScoresHandler struct {
	deps ScoreDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoreDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

// scoreRequest mirrors the OpenAPI schema for POST /api/score.
type scoreRequest struct {
	Game            string         `json:"game"`
	Domain          string         `json:"domain"`
	Value           *float64       `json:"value"`
	Details         map[string]any `json:"details"`
	PracticeAction  string         `json:"practice_action"`
	PracticeContext string         `json:"practice_context"`
	SubmissionID    string         `json:"submission_id"`
}

type scoreResponse struct {
	OK        bool     `json:"ok"`
	Duplicate bool     `json:"duplicate"`
	ID        int64    `json:"id,omitempty"`
	Completed bool     `json:"completed"`
	Reward    *float64 `json:"reward,omitempty"`
}

// HandlePostScore handles POST /api/score requests.
func (h *ScoresHandler) HandlePostScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_score"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	user, err := userID(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var req scoreRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	if req.Value == nil {
		writeServiceError(r.Context(), w, op, fmt.Errorf("%w: missing value", ErrBadRequest))
		return
	}

	res, err := h.deps.SubmitScore(r.Context(), service.Submission{
		SubmissionID:    req.SubmissionID,
		UserID:          user,
		GameID:          req.Game,
		Domain:          req.Domain,
		Value:           *req.Value,
		Details:         req.Details,
		PracticeAction:  req.PracticeAction,
		PracticeContext: req.PracticeContext,
	})
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}

	out := scoreResponse{OK: true, Duplicate: res.Duplicate, ID: res.Record.ID, Completed: res.Completed}
	if res.Practice != nil {
		reward := res.Practice.Outcome.Reward
		out.Reward = &reward
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetScores handles GET /api/scores?limit= requests.
func (h *ScoresHandler) HandleGetScores(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_scores"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	user, err := userID(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeServiceError(r.Context(), w, op, fmt.Errorf("%w: invalid limit %q", ErrBadRequest, raw))
			return
		}
	}
	recs, err := h.deps.ScoreHistory(r.Context(), user, limit)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "scores": recs})
}

type dashboardResponse struct {
	OK       bool                         `json:"ok"`
	Domains  map[string]model.ScoreRecord `json:"domains"`
	Recent   []model.ScoreRecord          `json:"recent"`
	Schedule *service.Schedule            `json:"schedule"`
}

// HandleDashboard handles GET /api/dashboard requests: the latest score per
// domain, recent history and the current schedule if any.
func (h *ScoresHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.dashboard"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	ctx := r.Context()
	user, err := userID(r)
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}

	domains, err := h.deps.DomainSummary(ctx, user)
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}
	recent, err := h.deps.ScoreHistory(ctx, user, dashboardRecent)
	if err != nil {
		writeServiceError(ctx, w, op, err)
		return
	}
	out := dashboardResponse{OK: true, Domains: domains, Recent: recent}
	switch sched, err := h.deps.LatestSchedule(ctx, user); {
	case err == nil:
		out.Schedule = &sched
	case !errors.Is(err, service.ErrNotFound):
		writeServiceError(ctx, w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
