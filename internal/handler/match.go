package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/quizleague/match-server-go/internal/errors"
	"github.com/quizleague/match-server-go/internal/scoring"
	"github.com/quizleague/match-server-go/internal/service"
)

type MatchHandler struct {
	matchmaker *service.MatchmakerService
	sessions   *service.SessionService
}

func NewMatchHandler(matchmaker *service.MatchmakerService, sessions *service.SessionService) *MatchHandler {
	return &MatchHandler{
		matchmaker: matchmaker,
		sessions:   sessions,
	}
}

func (h *MatchHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/join", h.Join)
	r.Get("/{sessionID}", h.GetSession)
	r.Post("/{sessionID}/answers", h.SubmitAnswer)
	r.Post("/{sessionID}/forfeit", h.Forfeit)

	return r
}

type joinRequest struct {
	PlayerID string `json:"playerId"`
	Language string `json:"language"`
}

// POST /v1/matches/join
func (h *MatchHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	result, err := h.matchmaker.Join(r.Context(), req.PlayerID, req.Language)
	if err != nil {
		log.Error().Err(err).Str("playerId", req.PlayerID).Msg("join failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /v1/matches/{sessionID}
func (h *MatchHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, formatSession(session, scoring.SpeedBonusWindowMs))
}

type answerRequest struct {
	PlayerID          string `json:"playerId"`
	QuestionIndex     int    `json:"questionIndex"`
	SelectedOption    *int   `json:"selectedOption"`
	ResponseLatencyMs int64  `json:"responseLatencyMs"`
}

// POST /v1/matches/{sessionID}/answers
func (h *MatchHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	session, err := h.sessions.SubmitAnswer(
		r.Context(), sessionID, req.PlayerID, req.QuestionIndex, req.SelectedOption, req.ResponseLatencyMs,
	)
	if err != nil {
		log.Error().Err(err).
			Str("sessionId", sessionID).
			Str("playerId", req.PlayerID).
			Msg("answer submission failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, formatSession(session, scoring.SpeedBonusWindowMs))
}

type forfeitRequest struct {
	PlayerID string `json:"playerId"`
}

// POST /v1/matches/{sessionID}/forfeit
func (h *MatchHandler) Forfeit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req forfeitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.InvalidInput("body", "malformed JSON"))
		return
	}

	session, err := h.sessions.Forfeit(r.Context(), sessionID, req.PlayerID)
	if err != nil {
		log.Error().Err(err).
			Str("sessionId", sessionID).
			Str("playerId", req.PlayerID).
			Msg("forfeit failed")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, formatSession(session, scoring.SpeedBonusWindowMs))
}
