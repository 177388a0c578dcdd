package app_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"learnhub-service/internal/app"
	"learnhub-service/internal/domain"
	"learnhub-service/internal/infra/memory"
	"learnhub-service/internal/logging"
)

type fixture struct {
	store    *memory.Store
	resume   *memory.SessionStore
	gateway  *stubGateway
	videos   *stubSearcher
	objects  *stubObjects
	access   *app.AccessService
	board    *app.LeaderboardService
	hub      *app.Hub
	quizzes  *app.QuizService
	progress *app.ProgressService
	courses  *app.CourseService
	subs     *app.SubscriptionService
	accounts *app.AccountService
	badges   *app.BadgeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logging.NewNop()
	f := &fixture{
		store:   memory.NewStore(),
		resume:  memory.NewSessionStore(time.Hour),
		gateway: &stubGateway{result: app.PaymentResult{Approved: true, TransactionID: "tx-1"}},
		videos:  &stubSearcher{ids: []string{"vid-1", "vid-2"}},
		objects: &stubObjects{blobs: map[string][]byte{}},
	}
	f.access = app.NewAccessService(f.store, f.resume, log)
	f.board = app.NewLeaderboardService(f.store, 10)
	f.hub = app.NewHub(f.board, log)
	f.quizzes = app.NewQuizService(f.store, f.store, f.access, f.hub, log)
	f.progress = app.NewProgressService(f.store, f.store, f.store, f.hub, log)
	f.courses = app.NewCourseService(app.CourseDeps{
		Catalog:      f.store,
		Enrollments:  f.store,
		Progress:     f.store,
		Quizzes:      f.store,
		Access:       f.access,
		Advancer:     f.progress,
		Videos:       f.videos,
		VideoTimeout: time.Second,
		Log:          log,
	})
	f.subs = app.NewSubscriptionService(f.store, f.resume, f.gateway, app.Plan{PriceCents: 4999, Currency: "usd"}, log)
	f.badges = app.NewBadgeService(f.store, f.objects, time.Minute, log)
	f.accounts = app.NewAccountService(f.store, f.store, f.store, f.store, f.badges, log).WithHashCost(bcrypt.MinCost)
	return f
}

func (f *fixture) user(t *testing.T, name string) app.Principal {
	t.Helper()
	u, err := f.accounts.Register(context.Background(), app.RegisterInput{
		Username:        name,
		Email:           name + "@example.com",
		Password:        "s3cret!pass",
		ConfirmPassword: "s3cret!pass",
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return app.Principal{UserID: u.ID, SessionID: "sid-" + name}
}

func (f *fixture) course(t *testing.T, title string, premium bool) domain.Course {
	t.Helper()
	c, err := f.courses.Create(context.Background(), domain.Course{Title: title, IsPremium: premium, Difficulty: domain.Beginner})
	if err != nil {
		t.Fatalf("create course %s: %v", title, err)
	}
	return c
}

func (f *fixture) quiz(t *testing.T, courseID *int64, premium bool, questions ...domain.Question) domain.Quiz {
	t.Helper()
	q := domain.Quiz{Title: "Quiz", CourseID: courseID, IsPremium: premium, Questions: questions}
	if err := f.store.CreateQuiz(context.Background(), &q); err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	return q
}

func question(text string, position int, answers ...domain.Answer) domain.Question {
	return domain.Question{Text: text, Position: position, Answers: answers}
}

func right(text string) domain.Answer { return domain.Answer{Text: text, IsCorrect: true} }
func wrong(text string) domain.Answer { return domain.Answer{Text: text} }

type stubGateway struct {
	mu     sync.Mutex
	result app.PaymentResult
	err    error
	calls  []app.PaymentRequest
}

func (g *stubGateway) Charge(_ context.Context, req app.PaymentRequest) (app.PaymentResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, req)
	return g.result, g.err
}

type stubSearcher struct {
	ids   []string
	err   error
	delay time.Duration
}

func (s *stubSearcher) Search(ctx context.Context, _ string) ([]string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.ids, s.err
}

type stubObjects struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func (o *stubObjects) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.blobs[key] = data
	return nil
}

func (o *stubObjects) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.test/" + key, nil
}
