package api

import (
	"context"
	"net/http"

	"github.com/okian/cogtrain/internal/domain/bandit"
)

// PracticeDependencies defines what practice handlers need.
type PracticeDependencies interface {
	SelectDifficulty(ctx context.Context, userID, gameID string) (bandit.Choice, error)
}

// PracticeHandler handles difficulty recommendations.
type PracticeHandler struct {
	deps PracticeDependencies
}

// NewPracticeHandler creates a new practice handler.
func NewPracticeHandler(deps PracticeDependencies) *PracticeHandler {
	return &PracticeHandler{deps: deps}
}

type difficultyResponse struct {
	OK       bool   `json:"ok"`
	Level    string `json:"level"`
	Context  string `json:"context"`
	Explored bool   `json:"explored"`
}

// HandleGetDifficulty handles GET /api/practice/difficulty?game= requests.
func (h *PracticeHandler) HandleGetDifficulty(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_difficulty"
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	user, err := userID(r)
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	choice, err := h.deps.SelectDifficulty(r.Context(), user, r.URL.Query().Get("game"))
	if err != nil {
		writeServiceError(r.Context(), w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, difficultyResponse{
		OK:       true,
		Level:    string(choice.Action),
		Context:  string(choice.Context),
		Explored: choice.Explored,
	})
}
