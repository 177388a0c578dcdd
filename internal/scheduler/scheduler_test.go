package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"learnhub-service/internal/logging"
)

type countingExpirer struct {
	calls atomic.Int32
	err   error
}

func (e *countingExpirer) ExpireSubscriptions(ctx context.Context) (int, error) {
	e.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("sweep ran without deadline")
	}
	return 3, e.err
}

func TestNewRejectsBadSpec(t *testing.T) {
	if _, err := New("not a cron spec", &countingExpirer{}, logging.NewNop()); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
}

func TestRunExpiryCallsExpirer(t *testing.T) {
	exp := &countingExpirer{}
	s, err := New("0 3 * * *", exp, logging.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.RunExpiry()
	exp.err = errors.New("db down")
	s.RunExpiry()
	if got := exp.calls.Load(); got != 2 {
		t.Fatalf("expected 2 sweeps, got %d", got)
	}
}

func TestScheduledSweepFires(t *testing.T) {
	exp := &countingExpirer{}
	s, err := New("@every 1s", exp, logging.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	s.Start()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	}()

	deadline := time.Now().Add(3 * time.Second)
	for exp.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sweep never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
