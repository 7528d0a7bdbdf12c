package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/cogtrain/internal/app"
)

// ScheduleDependencies defines what schedule handlers need.
type ScheduleDependencies interface {
	GenerateSchedule(ctx context.Context, userID string, days int) (service.Schedule, error)
	LatestSchedule(ctx context.Context, userID string) (service.Schedule, error)
	MarkGameCompleted(ctx context.Context, userID, gameID string) (bool, error)
}

// ScheduleHandler handles schedule generation, lookup and completion.
type ScheduleHandler struct {
	deps ScheduleDependencies
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(deps ScheduleDependencies) *ScheduleHandler {
	return &ScheduleHandler{deps: deps}
}

type scheduleRequest struct {
	Days int `json:"days"`
}

type completeRequest struct {
	Game string `json:"game"`
}

type scheduleResponse struct {
	OK       bool             `json:"ok"`
	Schedule service.Schedule `json:"schedule"`
}

// HandleSchedule handles GET and POST /api/schedule requests.
func (h *ScheduleHandler) HandleSchedule(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getSchedule(w, r)
	case http.MethodPost:
		h.postSchedule(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	}
}

func (h *ScheduleHandler) getSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_schedule"
	user, err := userID(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	sched, err := h.deps.LatestSchedule(r.Context(), user)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{OK: true, Schedule: sched})
}

func (h *ScheduleHandler) postSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_schedule"
	user, err := userID(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var req scheduleRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	if req.Days < 0 {
		writeServiceError(r.Context(), w, op, fmt.Errorf("%w: days must not be negative", ErrBadRequest))
		return
	}
	sched, err := h.deps.GenerateSchedule(r.Context(), user, req.Days)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, scheduleResponse{OK: true, Schedule: sched})
}

// HandleComplete handles POST /api/schedule/complete requests.
func (h *ScheduleHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	const op = "api.schedule_complete"
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	user, err := userID(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	var req completeRequest
	if err := decodeBody(r, &req); err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	if strings.TrimSpace(req.Game) == "" {
		writeServiceError(r.Context(), w, op, fmt.Errorf("%w: missing game", ErrBadRequest))
		return
	}
	changed, err := h.deps.MarkGameCompleted(r.Context(), user, req.Game)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "changed": changed})
}
