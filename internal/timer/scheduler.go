// Package timer schedules the countdown and per-question deadlines for
// running sessions. A session owns at most one armed timer at a time; every
// timer is tagged with the question index it was armed for so a stale fire
// can be detected and dropped instead of acting on an advanced session.
package timer

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// countdownTag marks a timer armed for the countdown transition rather than
// a question deadline.
const countdownTag = -1

type armed struct {
	question int
	t        *time.Timer
}

type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*armed
	closed bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		timers: make(map[string]*armed),
	}
}

// ArmCountdown schedules the countdown-to-playing transition. Any timer
// already armed for the session is replaced.
func (s *Scheduler) ArmCountdown(sessionID string, d time.Duration, fire func(sessionID string)) {
	s.arm(sessionID, countdownTag, d, func() { fire(sessionID) })
}

// ArmQuestion schedules the deadline for one question. Re-arming the same
// question replaces the pending timer, so the deadline is armed exactly once
// per question becoming current.
func (s *Scheduler) ArmQuestion(sessionID string, question int, d time.Duration, fire func(sessionID string, question int)) {
	s.arm(sessionID, question, d, func() { fire(sessionID, question) })
}

func (s *Scheduler) arm(sessionID string, question int, d time.Duration, fire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	if prev, ok := s.timers[sessionID]; ok {
		prev.t.Stop()
	}

	entry := &armed{question: question}
	entry.t = time.AfterFunc(d, func() {
		if !s.disarmIfCurrent(sessionID, entry) {
			// A newer timer replaced this one between expiry and firing.
			log.Debug().
				Str("sessionId", sessionID).
				Int("question", question).
				Msg("stale timer fire dropped")
			return
		}
		fire()
	})
	s.timers[sessionID] = entry
}

// disarmIfCurrent removes the entry only if it is still the session's armed
// timer, reporting whether the fire should proceed.
func (s *Scheduler) disarmIfCurrent(sessionID string, entry *armed) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	current, ok := s.timers[sessionID]
	if !ok || current != entry {
		return false
	}
	delete(s.timers, sessionID)
	return true
}

// Disarm cancels the pending timer for a session if it is armed for the
// given question. A timer for a different question is left alone.
func (s *Scheduler) Disarm(sessionID string, question int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.timers[sessionID]
	if !ok || current.question != question {
		return
	}
	current.t.Stop()
	delete(s.timers, sessionID)
}

// DisarmSession cancels whatever timer the session has pending.
func (s *Scheduler) DisarmSession(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.timers[sessionID]; ok {
		current.t.Stop()
		delete(s.timers, sessionID)
	}
}

// Armed reports the question index the session's pending timer is tagged
// with, or false when nothing is armed.
func (s *Scheduler) Armed(sessionID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.timers[sessionID]
	if !ok {
		return 0, false
	}
	return current.question, true
}

// Stop cancels all pending timers and refuses further arming.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	for id, entry := range s.timers {
		entry.t.Stop()
		delete(s.timers, id)
	}
}
