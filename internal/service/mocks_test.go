package service

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"

	"github.com/quizleague/match-server-go/internal/database"
	"github.com/quizleague/match-server-go/internal/model"
	"github.com/quizleague/match-server-go/internal/repository"
	"github.com/quizleague/match-server-go/internal/timer"
)

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) LockMatchmaking(ctx context.Context) error { return nil }

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) FindActiveByPlayer(ctx context.Context, playerID string) (*model.Session, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) FindOldestWaiting(ctx context.Context, excludePlayerID string) (*model.Session, error) {
	args := m.Called(ctx, excludePlayerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) Create(ctx context.Context, s *model.Session) (*model.Session, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) UpdateConditional(ctx context.Context, s *model.Session) (*model.Session, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Session), args.Error(1)
}

func (m *mockSessionRepo) DeleteStaleWaiting(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockSessionRepo) WithTx(tx *sqlx.Tx) repository.SessionRepository {
	return m
}

type mockQuestionRepo struct {
	mock.Mock
}

func (m *mockQuestionRepo) FetchAll(ctx context.Context) ([]model.Question, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Question), args.Error(1)
}

type mockStandingRepo struct {
	mock.Mock
}

func (m *mockStandingRepo) FindByPlayer(ctx context.Context, playerID string) (*model.Standing, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Standing), args.Error(1)
}

func (m *mockStandingRepo) Put(ctx context.Context, s *model.Standing) (*model.Standing, error) {
	args := m.Called(ctx, s)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Standing), args.Error(1)
}

func (m *mockStandingRepo) TopOfDivision(ctx context.Context, division, limit int) ([]model.Standing, error) {
	args := m.Called(ctx, division, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Standing), args.Error(1)
}

func (m *mockStandingRepo) WithTx(tx *sqlx.Tx) repository.StandingRepository {
	return m
}

// fakeTx runs the transaction body directly, no database behind it.
type fakeTx struct{}

func (fakeTx) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

// fakeNotifier records every published snapshot.
type fakeNotifier struct {
	mu        sync.Mutex
	published []*model.Session
}

func (n *fakeNotifier) PublishSessionUpdate(ctx context.Context, s *model.Session) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, s)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.published)
}

// testStack bundles a SessionService wired against mocks. Timers are armed
// with hour-long durations so nothing fires during a test.
type testStack struct {
	sessionRepo  *mockSessionRepo
	standingRepo *mockStandingRepo
	scheduler    *timer.Scheduler
	notifier     *fakeNotifier
	sessions     *SessionService
}

func newTestStack() *testStack {
	sessionRepo := &mockSessionRepo{}
	standingRepo := &mockStandingRepo{}
	scheduler := timer.NewScheduler()
	notifier := &fakeNotifier{}
	finalizer := NewFinalizerService(fakeTx{}, standingRepo)
	sessions := NewSessionService(sessionRepo, finalizer, scheduler, notifier, time.Hour, time.Hour)
	return &testStack{
		sessionRepo:  sessionRepo,
		standingRepo: standingRepo,
		scheduler:    scheduler,
		notifier:     notifier,
		sessions:     sessions,
	}
}

func playingSession(questions int) *model.Session {
	now := time.Now()
	qs := make(model.QuestionList, 0, questions)
	for i := 0; i < questions; i++ {
		qs = append(qs, model.QuestionSnapshot{
			ID:            "q" + string(rune('0'+i)),
			Text:          map[string]string{"en": "?"},
			Options:       []string{"a", "b", "c", "d"},
			CorrectOption: 1,
		})
	}
	return &model.Session{
		ID:              "s1",
		Status:          model.SessionStatusPlaying,
		Players:         []string{"p1", "p2"},
		PlayerLanguages: model.LanguageMap{"p1": "en", "p2": "fr"},
		Questions:       qs,
		Answers:         model.AnswerSet{},
		PlayerScores:    model.ScoreMap{"p1": 0, "p2": 0},
		Version:         1,
		CreatedAt:       now,
		StartedAt:       &now,
	}
}
