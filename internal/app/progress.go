package app

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"learnhub-service/internal/domain"
	"learnhub-service/internal/logging"
)

const (
	// ProgressStep is how far one advance moves a course, in percent.
	ProgressStep = 25
	// CompletionPoints are awarded once when a course reaches 100%.
	CompletionPoints = 10
)

// step applies one advance to p and reports whether it just completed.
func step(p domain.Progress) (domain.Progress, bool) {
	wasCompleted := p.Completed
	p.Percent += ProgressStep
	if p.Percent > 100 {
		p.Percent = 100
	}
	p.Completed = p.Percent == 100
	return p, p.Completed && !wasCompleted
}

// ProgressService advances course progress and pays the completion reward.
type ProgressService struct {
	tx       TxRunner
	progress ProgressStore
	profiles ProfileStore
	notifier Notifier
	log      *logging.Logger
}

func NewProgressService(tx TxRunner, progress ProgressStore, profiles ProfileStore, notifier Notifier, log *logging.Logger) *ProgressService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &ProgressService{tx: tx, progress: progress, profiles: profiles, notifier: notifier, log: log}
}

// Advance moves the (user, course) progress forward one step. The row stays locked
// for the whole read-modify-write so concurrent advances serialize, and the
// completion reward is paid in the same transaction as the flip to completed.
func (s *ProgressService) Advance(ctx context.Context, userID, courseID int64) (domain.Progress, error) {
	ctx, span := tracer.Start(ctx, "progress.advance", trace.WithAttributes(
		attribute.Int64("course.id", courseID),
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	var (
		out     domain.Progress
		awarded bool
	)
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		// Fail before touching progress when the caller has no profile to credit.
		if _, err := s.profiles.ProfileByUserID(ctx, userID); err != nil {
			return err
		}
		current, err := s.progress.LockProgress(ctx, userID, courseID)
		if err != nil {
			return err
		}
		next, completedNow := step(current)
		if next != current {
			if err := s.progress.SaveProgress(ctx, next); err != nil {
				return err
			}
		}
		if completedNow {
			if _, err := s.profiles.AddPoints(ctx, userID, CompletionPoints); err != nil {
				return err
			}
		}
		out, awarded = next, completedNow
		return nil
	})
	if err != nil {
		return domain.Progress{}, err
	}

	span.SetAttributes(attribute.Int("progress.percent", out.Percent))
	if awarded {
		s.log.Info("course completed", "user", userID, "course", courseID, "points", CompletionPoints)
	}
	s.notifier.LeaderboardChanged(ctx)
	return out, nil
}
