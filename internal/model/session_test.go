package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStatusTransitions(t *testing.T) {
	t.Run("allows only forward moves", func(t *testing.T) {
		assert.True(t, SessionStatusWaiting.CanTransition(SessionStatusCountdown))
		assert.True(t, SessionStatusCountdown.CanTransition(SessionStatusPlaying))
		assert.True(t, SessionStatusPlaying.CanTransition(SessionStatusFinished))
	})

	t.Run("rejects skips and regressions", func(t *testing.T) {
		assert.False(t, SessionStatusWaiting.CanTransition(SessionStatusPlaying))
		assert.False(t, SessionStatusCountdown.CanTransition(SessionStatusWaiting))
		assert.False(t, SessionStatusPlaying.CanTransition(SessionStatusCountdown))
		assert.False(t, SessionStatusFinished.CanTransition(SessionStatusPlaying))
		assert.False(t, SessionStatusFinished.CanTransition(SessionStatusWaiting))
	})

	t.Run("finished is terminal", func(t *testing.T) {
		assert.True(t, SessionStatusFinished.Terminal())
		assert.False(t, SessionStatusPlaying.Terminal())
	})

	t.Run("active covers all non-terminal statuses", func(t *testing.T) {
		assert.True(t, SessionStatusWaiting.Active())
		assert.True(t, SessionStatusCountdown.Active())
		assert.True(t, SessionStatusPlaying.Active())
		assert.False(t, SessionStatusFinished.Active())
	})
}

func TestAnswerSet(t *testing.T) {
	t.Run("put is write-once per key", func(t *testing.T) {
		answers := AnswerSet{}
		key := AnswerKey{PlayerID: "p1", Question: 0}

		assert.True(t, answers.Put(key, Answer{Points: 10}))
		assert.False(t, answers.Put(key, Answer{Points: 15}))

		ans, ok := answers.Get(key)
		require.True(t, ok)
		assert.Equal(t, 10, ans.Points, "first write wins")
	})

	t.Run("keys are composite over player and question", func(t *testing.T) {
		answers := AnswerSet{}
		assert.True(t, answers.Put(AnswerKey{PlayerID: "p1", Question: 0}, Answer{}))
		assert.True(t, answers.Put(AnswerKey{PlayerID: "p1", Question: 1}, Answer{}))
		assert.True(t, answers.Put(AnswerKey{PlayerID: "p2", Question: 0}, Answer{}))
		assert.Len(t, answers, 3)
	})

	t.Run("round-trips through json", func(t *testing.T) {
		answers := AnswerSet{}
		opt := 2
		answers.Put(AnswerKey{PlayerID: "p1", Question: 3}, Answer{
			SelectedOption: &opt,
			Correct:        true,
			Points:         15,
		})

		data, err := json.Marshal(answers)
		require.NoError(t, err)

		var decoded AnswerSet
		require.NoError(t, json.Unmarshal(data, &decoded))

		ans, ok := decoded.Get(AnswerKey{PlayerID: "p1", Question: 3})
		require.True(t, ok)
		assert.Equal(t, 15, ans.Points)
		require.NotNil(t, ans.SelectedOption)
		assert.Equal(t, 2, *ans.SelectedOption)
	})
}

func newTestSession() *Session {
	return &Session{
		ID:      "s1",
		Status:  SessionStatusPlaying,
		Players: []string{"p1", "p2"},
		Questions: QuestionList{
			{ID: "q0", CorrectOption: 0},
			{ID: "q1", CorrectOption: 1},
			{ID: "q2", CorrectOption: 2},
		},
		Answers:      AnswerSet{},
		PlayerScores: ScoreMap{"p1": 0, "p2": 0},
	}
}

func TestSessionHelpers(t *testing.T) {
	t.Run("opponent lookup", func(t *testing.T) {
		s := newTestSession()
		assert.Equal(t, "p2", s.Opponent("p1"))
		assert.Equal(t, "p1", s.Opponent("p2"))
		assert.Equal(t, "", s.Opponent("stranger"))
	})

	t.Run("all answered requires every player", func(t *testing.T) {
		s := newTestSession()
		assert.False(t, s.AllAnswered(0))

		s.Answers.Put(AnswerKey{PlayerID: "p1", Question: 0}, Answer{})
		assert.False(t, s.AllAnswered(0))

		s.Answers.Put(AnswerKey{PlayerID: "p2", Question: 0}, Answer{})
		assert.True(t, s.AllAnswered(0))
	})

	t.Run("last question detection", func(t *testing.T) {
		s := newTestSession()
		assert.False(t, s.LastQuestion(0))
		assert.True(t, s.LastQuestion(2))
	})

	t.Run("stats aggregate answer records", func(t *testing.T) {
		s := newTestSession()
		s.PlayerScores["p1"] = 25
		s.Answers.Put(AnswerKey{PlayerID: "p1", Question: 0}, Answer{Correct: true, Points: 15, ResponseLatencyMs: 3000})
		s.Answers.Put(AnswerKey{PlayerID: "p1", Question: 1}, Answer{Correct: true, Points: 10, ResponseLatencyMs: 9000})
		s.Answers.Put(AnswerKey{PlayerID: "p1", Question: 2}, Answer{Correct: false, Points: 0, ResponseLatencyMs: 5000})

		stats := s.Stats(7000)
		p1 := stats["p1"]
		assert.Equal(t, 25, p1.Score)
		assert.Equal(t, 2, p1.CorrectAnswers)
		assert.Equal(t, 1, p1.QuickAnswers)
		assert.InDelta(t, 66.7, p1.Accuracy, 0.1)
	})
}

func TestMatchHistoryPrepend(t *testing.T) {
	t.Run("newest entry comes first", func(t *testing.T) {
		h := MatchHistory{{SessionID: "old"}}
		h = h.Prepend(MatchRecord{SessionID: "new"})

		assert.Equal(t, "new", h[0].SessionID)
		assert.Equal(t, "old", h[1].SessionID)
	})

	t.Run("history is capped", func(t *testing.T) {
		h := MatchHistory{}
		for i := 0; i < MatchHistoryLimit+5; i++ {
			h = h.Prepend(MatchRecord{SessionID: "s"})
		}
		assert.Len(t, h, MatchHistoryLimit)
	})
}

func TestNormalizeLanguage(t *testing.T) {
	assert.Equal(t, "fr", NormalizeLanguage("fr"))
	assert.Equal(t, DefaultLanguage, NormalizeLanguage("xx"))
	assert.Equal(t, DefaultLanguage, NormalizeLanguage(""))
}
