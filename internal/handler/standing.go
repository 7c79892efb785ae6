package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizleague/match-server-go/internal/service"
)

type StandingHandler struct {
	standings *service.StandingService
}

func NewStandingHandler(standings *service.StandingService) *StandingHandler {
	return &StandingHandler{standings: standings}
}

func (h *StandingHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/leaderboard", h.Leaderboard)
	r.Get("/{playerID}", h.GetStanding)

	return r
}

// GET /v1/standings/{playerID}
func (h *StandingHandler) GetStanding(w http.ResponseWriter, r *http.Request) {
	playerID := chi.URLParam(r, "playerID")

	standing, err := h.standings.Get(r.Context(), playerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, standing)
}

// GET /v1/standings/leaderboard
func (h *StandingHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.standings.Leaderboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}
