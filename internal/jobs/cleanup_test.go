package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizleague/match-server-go/internal/model"
	"github.com/quizleague/match-server-go/internal/repository"
)

// recordingRepo captures the cutoff passed to DeleteStaleWaiting.
type recordingRepo struct {
	repository.SessionRepository

	mu      sync.Mutex
	cutoffs []time.Time
	calls   chan struct{}
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{calls: make(chan struct{}, 16)}
}

func (r *recordingRepo) DeleteStaleWaiting(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	r.cutoffs = append(r.cutoffs, olderThan)
	r.mu.Unlock()
	r.calls <- struct{}{}
	return 1, nil
}

func (r *recordingRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository { return r }

func (r *recordingRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return nil, nil
}

func TestCleanupJob(t *testing.T) {
	t.Run("sweeps immediately on start", func(t *testing.T) {
		repo := newRecordingRepo()
		job := NewCleanupJob(repo, time.Hour, 10*time.Minute)
		job.Start()
		defer job.Stop()

		select {
		case <-repo.calls:
		case <-time.After(time.Second):
			t.Fatal("expected an initial sweep")
		}

		repo.mu.Lock()
		defer repo.mu.Unlock()
		require.Len(t, repo.cutoffs, 1)
		age := time.Since(repo.cutoffs[0])
		assert.InDelta(t, (10 * time.Minute).Seconds(), age.Seconds(), 5)
	})

	t.Run("keeps sweeping on the interval", func(t *testing.T) {
		repo := newRecordingRepo()
		job := NewCleanupJob(repo, 10*time.Millisecond, time.Minute)
		job.Start()
		defer job.Stop()

		for i := 0; i < 3; i++ {
			select {
			case <-repo.calls:
			case <-time.After(time.Second):
				t.Fatalf("expected sweep %d", i+1)
			}
		}
	})

	t.Run("stop ends the loop", func(t *testing.T) {
		repo := newRecordingRepo()
		job := NewCleanupJob(repo, 20*time.Millisecond, time.Minute)
		job.Start()

		<-repo.calls
		job.Stop()

		// Drain anything already in flight, then expect silence.
		time.Sleep(60 * time.Millisecond)
		for len(repo.calls) > 0 {
			<-repo.calls
		}
		select {
		case <-repo.calls:
			t.Fatal("sweep after stop")
		case <-time.After(80 * time.Millisecond):
		}
	})
}
