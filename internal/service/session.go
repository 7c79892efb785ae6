package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quizleague/match-server-go/internal/config"
	apperrors "github.com/quizleague/match-server-go/internal/errors"
	"github.com/quizleague/match-server-go/internal/model"
	"github.com/quizleague/match-server-go/internal/repository"
	"github.com/quizleague/match-server-go/internal/scoring"
	"github.com/quizleague/match-server-go/internal/timer"
)

// Notifier pushes session snapshots to subscribed clients.
type Notifier interface {
	PublishSessionUpdate(ctx context.Context, s *model.Session) error
}

// timerHandlerTimeout bounds the work a timer callback may do; nothing waits
// on it.
const timerHandlerTimeout = 10 * time.Second

// SessionService drives a session's lifecycle once players are paired:
// countdown, question advancement, deadlines, forfeits. Every mutation is a
// fresh read, an in-memory change, and a version-conditional write, retried
// on conflict, so concurrent submissions and timer fires never double-apply.
type SessionService struct {
	sessionRepo  repository.SessionRepository
	finalizer    *FinalizerService
	scheduler    *timer.Scheduler
	notifier     Notifier
	questionTime time.Duration
	countdown    time.Duration
}

func NewSessionService(
	sessionRepo repository.SessionRepository,
	finalizer *FinalizerService,
	scheduler *timer.Scheduler,
	notifier Notifier,
	questionTime time.Duration,
	countdown time.Duration,
) *SessionService {
	return &SessionService{
		sessionRepo:  sessionRepo,
		finalizer:    finalizer,
		scheduler:    scheduler,
		notifier:     notifier,
		questionTime: questionTime,
		countdown:    countdown,
	}
}

func (s *SessionService) Get(ctx context.Context, id string) (*model.Session, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	if session == nil {
		return nil, apperrors.NotFound("Session")
	}
	return session, nil
}

// BeginCountdown arms the countdown timer after a successful pairing write
// and tells both clients the countdown started.
func (s *SessionService) BeginCountdown(ctx context.Context, session *model.Session) {
	s.scheduler.ArmCountdown(session.ID, s.countdown, s.handleCountdownElapsed)
	s.publish(ctx, session)
}

// handleCountdownElapsed performs the single authoritative countdown→playing
// write, records the session start, and arms the first question deadline.
func (s *SessionService) handleCountdownElapsed(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), timerHandlerTimeout)
	defer cancel()

	for attempt := 0; attempt < config.WriteRetryAttempts; attempt++ {
		session, err := s.sessionRepo.FindByID(ctx, sessionID)
		if err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("countdown: read failed")
			return
		}
		if session == nil || !session.Status.CanTransition(model.SessionStatusPlaying) {
			return
		}

		now := time.Now()
		session.Status = model.SessionStatusPlaying
		session.StartedAt = &now

		updated, err := s.sessionRepo.UpdateConditional(ctx, session)
		if err == repository.ErrVersionConflict {
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("countdown: write failed")
			return
		}

		log.Info().Str("sessionId", sessionID).Msg("session playing")
		s.armQuestion(updated.ID, updated.CurrentQuestion)
		s.publish(ctx, updated)
		return
	}

	log.Error().Str("sessionId", sessionID).Msg("countdown: retries exhausted")
}

// SubmitAnswer records one player's answer for the current question.
// Submissions against a non-playing session, a non-current question, or an
// already-answered slot are no-ops returning the current state.
func (s *SessionService) SubmitAnswer(
	ctx context.Context,
	sessionID, playerID string,
	questionIndex int,
	selectedOption *int,
	responseLatencyMs int64,
) (*model.Session, error) {
	if playerID == "" {
		return nil, apperrors.MissingRequired("playerId")
	}
	responseLatencyMs = s.clampLatency(responseLatencyMs)

	for attempt := 0; attempt < config.WriteRetryAttempts; attempt++ {
		session, err := s.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if session.Status != model.SessionStatusPlaying {
			return session, nil
		}
		if !session.HasPlayer(playerID) {
			return nil, apperrors.ValidationError("Player is not part of this session")
		}
		if questionIndex < 0 || questionIndex >= len(session.Questions) {
			return nil, apperrors.InvalidInput("questionIndex", "out of range")
		}
		if questionIndex != session.CurrentQuestion {
			return session, nil
		}

		key := model.AnswerKey{PlayerID: playerID, Question: questionIndex}
		if session.Answers.Has(key) {
			return session, nil
		}

		question := session.Questions[questionIndex]
		correct := selectedOption != nil && *selectedOption == question.CorrectOption
		points := scoring.Score(correct, responseLatencyMs)

		session.Answers.Put(key, model.Answer{
			SelectedOption:    selectedOption,
			Correct:           correct,
			Points:            points,
			ResponseLatencyMs: responseLatencyMs,
			SubmittedAt:       time.Now().UnixMilli(),
		})
		session.PlayerScores[playerID] += points
		s.advanceIfComplete(session, questionIndex)

		updated, err := s.sessionRepo.UpdateConditional(ctx, session)
		if err == repository.ErrVersionConflict {
			log.Debug().
				Str("sessionId", sessionID).
				Str("playerId", playerID).
				Int("question", questionIndex).
				Msg("answer write lost race, retrying")
			continue
		}
		if err != nil {
			return nil, apperrors.Database(err)
		}

		log.Info().
			Str("sessionId", sessionID).
			Str("playerId", playerID).
			Int("question", questionIndex).
			Bool("correct", correct).
			Int("points", points).
			Msg("answer recorded")

		s.afterWrite(ctx, updated, questionIndex)
		return updated, nil
	}

	return nil, apperrors.Conflict("Answer submission kept losing to concurrent updates")
}

// handleQuestionDeadline synthesizes zero-point timed-out records for every
// player still missing an answer and advances. A fire whose question is no
// longer current no-ops; errors are logged, never propagated.
func (s *SessionService) handleQuestionDeadline(sessionID string, questionIndex int) {
	ctx, cancel := context.WithTimeout(context.Background(), timerHandlerTimeout)
	defer cancel()

	for attempt := 0; attempt < config.WriteRetryAttempts; attempt++ {
		session, err := s.sessionRepo.FindByID(ctx, sessionID)
		if err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("deadline: read failed")
			return
		}
		if session == nil {
			log.Warn().Str("sessionId", sessionID).Msg("deadline: session vanished")
			return
		}
		if session.Status != model.SessionStatusPlaying || session.CurrentQuestion != questionIndex {
			log.Debug().
				Str("sessionId", sessionID).
				Int("question", questionIndex).
				Int("current", session.CurrentQuestion).
				Msg("deadline: stale fire ignored")
			return
		}

		now := time.Now().UnixMilli()
		for _, p := range session.Players {
			session.Answers.Put(model.AnswerKey{PlayerID: p, Question: questionIndex}, model.Answer{
				SelectedOption:    nil,
				Correct:           false,
				Points:            0,
				ResponseLatencyMs: s.questionTime.Milliseconds(),
				SubmittedAt:       now,
				TimedOut:          true,
			})
		}
		s.advanceIfComplete(session, questionIndex)

		updated, err := s.sessionRepo.UpdateConditional(ctx, session)
		if err == repository.ErrVersionConflict {
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("sessionId", sessionID).Msg("deadline: write failed")
			return
		}

		log.Info().
			Str("sessionId", sessionID).
			Int("question", questionIndex).
			Msg("question timed out")

		s.afterWrite(ctx, updated, questionIndex)
		return
	}

	log.Error().
		Str("sessionId", sessionID).
		Int("question", questionIndex).
		Msg("deadline: retries exhausted")
}

// Forfeit ends the match immediately: the forfeiting player receives
// zero-point records for every remaining question, the opponent maximum-point
// auto-wins, and the session finishes.
func (s *SessionService) Forfeit(ctx context.Context, sessionID, playerID string) (*model.Session, error) {
	if playerID == "" {
		return nil, apperrors.MissingRequired("playerId")
	}

	for attempt := 0; attempt < config.WriteRetryAttempts; attempt++ {
		session, err := s.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if session.Status != model.SessionStatusPlaying {
			return session, nil
		}
		if !session.HasPlayer(playerID) {
			return nil, apperrors.ValidationError("Player is not part of this session")
		}
		opponent := session.Opponent(playerID)

		now := time.Now()
		nowMs := now.UnixMilli()
		for i := session.CurrentQuestion; i < len(session.Questions); i++ {
			session.Answers.Put(model.AnswerKey{PlayerID: playerID, Question: i}, model.Answer{
				ResponseLatencyMs: 0,
				SubmittedAt:       nowMs,
				Forfeited:         true,
			})
			if session.Answers.Put(model.AnswerKey{PlayerID: opponent, Question: i}, model.Answer{
				Points:            scoring.MaxQuestionPoints,
				ResponseLatencyMs: 0,
				SubmittedAt:       nowMs,
				AutoWin:           true,
			}) {
				session.PlayerScores[opponent] += scoring.MaxQuestionPoints
			}
		}

		session.Status = model.SessionStatusFinished
		session.EndedAt = &now
		session.ForfeitedBy = &playerID

		updated, err := s.sessionRepo.UpdateConditional(ctx, session)
		if err == repository.ErrVersionConflict {
			continue
		}
		if err != nil {
			return nil, apperrors.Database(err)
		}

		log.Info().
			Str("sessionId", sessionID).
			Str("playerId", playerID).
			Str("opponent", opponent).
			Msg("session forfeited")

		s.afterWrite(ctx, updated, updated.CurrentQuestion)
		return updated, nil
	}

	return nil, apperrors.Conflict("Forfeit kept losing to concurrent updates")
}

// advanceIfComplete moves the session forward once every player has a record
// at questionIndex: either to the next question or into the finished state.
func (s *SessionService) advanceIfComplete(session *model.Session, questionIndex int) {
	if !session.AllAnswered(questionIndex) {
		return
	}
	if session.LastQuestion(questionIndex) {
		if session.Status.CanTransition(model.SessionStatusFinished) {
			now := time.Now()
			session.Status = model.SessionStatusFinished
			session.EndedAt = &now
		}
		return
	}
	session.CurrentQuestion = questionIndex + 1
}

// afterWrite performs the post-commit side effects: timer bookkeeping,
// finalization, and change notification. prevQuestion is the index the
// mutation applied to.
func (s *SessionService) afterWrite(ctx context.Context, session *model.Session, prevQuestion int) {
	switch {
	case session.Status == model.SessionStatusFinished:
		s.scheduler.DisarmSession(session.ID)
		if err := s.finalizer.Finalize(ctx, session); err != nil {
			log.Error().Err(err).Str("sessionId", session.ID).Msg("match finalization failed")
		}
	case session.CurrentQuestion != prevQuestion:
		s.scheduler.Disarm(session.ID, prevQuestion)
		s.armQuestion(session.ID, session.CurrentQuestion)
	}
	s.publish(ctx, session)
}

// clampLatency bounds the client-reported latency to the question window.
// The value is self-reported and only affects the speed bonus, so forged or
// garbage values are clamped rather than rejected.
func (s *SessionService) clampLatency(latencyMs int64) int64 {
	if latencyMs < 0 {
		return 0
	}
	if limit := s.questionTime.Milliseconds(); latencyMs > limit {
		return limit
	}
	return latencyMs
}

func (s *SessionService) armQuestion(sessionID string, questionIndex int) {
	s.scheduler.ArmQuestion(sessionID, questionIndex, s.questionTime, s.handleQuestionDeadline)
}

func (s *SessionService) publish(ctx context.Context, session *model.Session) {
	if err := s.notifier.PublishSessionUpdate(ctx, session); err != nil {
		log.Error().Err(err).Str("sessionId", session.ID).Msg("failed to publish session update")
	}
}
