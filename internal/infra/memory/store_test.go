package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"learnhub-service/internal/domain"
)

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")

	err := store.InTx(ctx, func(ctx context.Context) error {
		u := domain.User{Username: "alice"}
		if err := store.CreateUser(ctx, &u); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := store.UserByUsername(ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user rolled back, got %v", err)
	}
}

func TestRollbackKeepsWritesOutsideTheTransaction(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	boom := errors.New("boom")
	quiz := domain.Quiz{Title: "Basics"}
	if err := store.CreateQuiz(ctx, &quiz); err != nil {
		t.Fatalf("create quiz: %v", err)
	}

	inTx := make(chan struct{})
	written := make(chan struct{})
	txErr := make(chan error, 1)
	go func() {
		txErr <- store.InTx(ctx, func(ctx context.Context) error {
			if err := store.CreateUser(ctx, &domain.User{Username: "doomed"}); err != nil {
				return err
			}
			close(inTx)
			select {
			case <-written:
				t.Errorf("standalone write finished while the transaction was open")
			case <-time.After(50 * time.Millisecond):
			}
			return boom
		})
	}()

	<-inTx
	go func() {
		defer close(written)
		if _, err := store.UpsertResult(ctx, domain.QuizResult{UserID: 1, QuizID: quiz.ID, Score: 3}); err != nil {
			t.Errorf("upsert: %v", err)
		}
	}()

	if err := <-txErr; !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	<-written

	results, err := store.ResultsByUser(ctx, 1, []int64{quiz.ID})
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 1 || results[0].Score != 3 {
		t.Fatalf("expected result to survive the rollback, got %+v", results)
	}
	if _, err := store.UserByUsername(ctx, "doomed"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected transactional user rolled back, got %v", err)
	}
}

func TestInTxNestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	err := store.InTx(ctx, func(ctx context.Context) error {
		return store.InTx(ctx, func(ctx context.Context) error {
			return store.CreateUser(ctx, &domain.User{Username: "nested"})
		})
	})
	if err != nil {
		t.Fatalf("nested tx: %v", err)
	}
	if _, err := store.UserByUsername(ctx, "nested"); err != nil {
		t.Fatalf("expected nested write committed: %v", err)
	}
}

func TestStandingsAggregates(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	u := domain.User{Username: "alice"}
	_ = store.CreateUser(ctx, &u)
	_ = store.CreateProfile(ctx, &domain.Profile{UserID: u.ID})
	q := domain.Quiz{Title: "q"}
	_ = store.CreateQuiz(ctx, &q)
	_, _ = store.UpsertResult(ctx, domain.QuizResult{UserID: u.ID, QuizID: q.ID, Score: 3})
	c := domain.Course{Title: "c", Slug: "c"}
	_ = store.CreateCourse(ctx, &c)
	p, _ := store.GetOrCreateProgress(ctx, u.ID, c.ID)
	p.Percent, p.Completed = 100, true
	_ = store.SaveProgress(ctx, p)

	standings, err := store.Standings(ctx)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(standings) != 1 || standings[0].AvgScore == nil || *standings[0].AvgScore != 3 || standings[0].CompletedCount != 1 {
		t.Fatalf("unexpected standings %+v", standings)
	}
}

func TestExpireSubscriptionsBoundary(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	_ = store.CreateProfile(ctx, &domain.Profile{UserID: 1})
	_ = store.CreateProfile(ctx, &domain.Profile{UserID: 2})
	_, _ = store.ActivateSubscription(ctx, 1, now.AddDate(-1, 0, 0), now)
	_, _ = store.ActivateSubscription(ctx, 2, now, now.AddDate(1, 0, 0))

	n, _ := store.ExpireSubscriptions(ctx, now)
	if n != 1 {
		t.Fatalf("expected one expired subscription, got %d", n)
	}
	p, _ := store.ProfileByUserID(ctx, 1)
	if p.SubscriptionStatus || p.Role != domain.RoleFree {
		t.Fatalf("expected expired profile to drop to free, got %+v", p)
	}
}
