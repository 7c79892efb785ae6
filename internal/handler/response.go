package handler

import (
	"net/http"

	"github.com/quizleague/match-server-go/internal/httputil"
	"github.com/quizleague/match-server-go/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// questionView is a question snapshot with the correct option stripped;
// correctness is judged server-side only.
type questionView struct {
	ID      string            `json:"id"`
	Text    map[string]string `json:"text"`
	Options []string          `json:"options"`
}

// sessionResponse is the client-observable session state.
type sessionResponse struct {
	*model.Session
	Questions []questionView               `json:"questions"`
	Stats     map[string]model.PlayerStats `json:"stats,omitempty"`
}

func formatSession(s *model.Session, speedBonusWindowMs int64) sessionResponse {
	questions := make([]questionView, 0, len(s.Questions))
	for _, q := range s.Questions {
		questions = append(questions, questionView{
			ID:      q.ID,
			Text:    q.Text,
			Options: q.Options,
		})
	}

	resp := sessionResponse{Session: s, Questions: questions}
	if s.Status == model.SessionStatusFinished {
		resp.Stats = s.Stats(speedBonusWindowMs)
	}
	return resp
}
