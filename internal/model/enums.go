package model

type SessionStatus string

const (
	SessionStatusWaiting   SessionStatus = "waiting"
	SessionStatusCountdown SessionStatus = "countdown"
	SessionStatusPlaying   SessionStatus = "playing"
	SessionStatusFinished  SessionStatus = "finished"
)

// statusTransitions is the only set of allowed forward moves. Anything not
// listed here is rejected; there are no backward transitions and finished is
// terminal.
var statusTransitions = map[SessionStatus][]SessionStatus{
	SessionStatusWaiting:   {SessionStatusCountdown},
	SessionStatusCountdown: {SessionStatusPlaying},
	SessionStatusPlaying:   {SessionStatusFinished},
	SessionStatusFinished:  {},
}

// CanTransition reports whether moving from s to next is allowed.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s SessionStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

// Active reports whether a player in a session with this status counts as
// already being in a match for matchmaking purposes.
func (s SessionStatus) Active() bool {
	return s == SessionStatusWaiting || s == SessionStatusCountdown || s == SessionStatusPlaying
}

type MatchResult string

const (
	MatchResultWin  MatchResult = "win"
	MatchResultTie  MatchResult = "tie"
	MatchResultLoss MatchResult = "loss"
)
