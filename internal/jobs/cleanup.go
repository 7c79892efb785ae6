package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/quizleague/match-server-go/internal/repository"
)

// CleanupJob garbage-collects sessions that never found an opponent. Only
// waiting sessions are touched; anything paired is left to run its course.
type CleanupJob struct {
	sessionRepo repository.SessionRepository
	interval    time.Duration
	maxAge      time.Duration
	done        chan struct{}
}

func NewCleanupJob(sessionRepo repository.SessionRepository, interval, maxAge time.Duration) *CleanupJob {
	return &CleanupJob{
		sessionRepo: sessionRepo,
		interval:    interval,
		maxAge:      maxAge,
		done:        make(chan struct{}),
	}
}

func (j *CleanupJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("cleanup job started")
}

func (j *CleanupJob) Stop() {
	close(j.done)
	log.Info().Msg("cleanup job stopped")
}

func (j *CleanupJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.cleanup()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *CleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := j.sessionRepo.DeleteStaleWaiting(ctx, time.Now().Add(-j.maxAge))
	if err != nil {
		log.Error().Err(err).Msg("failed to clean up stale sessions")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("cleaned up stale waiting sessions")
	}
}
