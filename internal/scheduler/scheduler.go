package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"learnhub-service/internal/logging"
)

// Expirer clears lapsed subscriptions and reports how many it touched.
type Expirer interface {
	ExpireSubscriptions(ctx context.Context) (int, error)
}

// Scheduler runs the periodic subscription expiry sweep.
type Scheduler struct {
	cron    *cron.Cron
	expirer Expirer
	timeout time.Duration
	log     *logging.Logger
}

// New registers the sweep on spec, a standard five-field cron expression.
func New(spec string, expirer Expirer, log *logging.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		expirer: expirer,
		timeout: time.Minute,
		log:     log.With("component", "scheduler"),
	}
	if _, err := s.cron.AddFunc(spec, s.RunExpiry); err != nil {
		return nil, fmt.Errorf("schedule expiry %q: %w", spec, err)
	}
	return s, nil
}

// RunExpiry performs one sweep.
func (s *Scheduler) RunExpiry() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	n, err := s.expirer.ExpireSubscriptions(ctx)
	if err != nil {
		s.log.Error("subscription expiry failed", "err", err)
		return
	}
	s.log.Info("subscription expiry done", "expired", n)
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for a running sweep to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
