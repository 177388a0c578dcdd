package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"learnhub-service/internal/domain"
	"learnhub-service/internal/logging"
)

// SubscriptionPeriod is the length of one premium purchase.
const SubscriptionPeriod = 365 * 24 * time.Hour

// Plan prices the premium subscription.
type Plan struct {
	PriceCents int64  `json:"priceCents"`
	Currency   string `json:"currency"`
}

// RequiredPage is shown to a caller who hit the premium gate.
type RequiredPage struct {
	Profile domain.Profile          `json:"profile"`
	Pending *domain.PendingResource `json:"pending,omitempty"`
	Plan    Plan                    `json:"plan"`
}

// UpgradeResult describes a successful upgrade.
type UpgradeResult struct {
	Profile       domain.Profile          `json:"profile"`
	TransactionID string                  `json:"transactionId"`
	Resume        *domain.PendingResource `json:"resume,omitempty"`
}

// SubscriptionService sells and expires premium subscriptions.
type SubscriptionService struct {
	profiles ProfileStore
	resume   ResumeStore
	gateway  PaymentGateway
	plan     Plan
	clock    func() time.Time
	log      *logging.Logger
}

func NewSubscriptionService(profiles ProfileStore, resume ResumeStore, gateway PaymentGateway, plan Plan, log *logging.Logger) *SubscriptionService {
	return &SubscriptionService{
		profiles: profiles,
		resume:   resume,
		gateway:  gateway,
		plan:     plan,
		clock:    time.Now,
		log:      log,
	}
}

// Required peeks at the resume slot without consuming it.
func (s *SubscriptionService) Required(ctx context.Context, p Principal) (RequiredPage, error) {
	profile, err := s.profiles.ProfileByUserID(ctx, p.UserID)
	if err != nil {
		return RequiredPage{}, err
	}
	page := RequiredPage{Profile: profile, Plan: s.plan}
	if p.SessionID == "" {
		return page, nil
	}
	pending, ok, err := s.resume.Peek(ctx, p.SessionID)
	if err != nil {
		s.log.Warn("peek pending resource", "session", p.SessionID, "err", err)
		return page, nil
	}
	if ok {
		page.Pending = &pending
	}
	return page, nil
}

// Upgrade charges the caller and, once approved, activates a subscription and
// hands back the resource that sent them here. Declined or failed charges leave
// the profile untouched.
func (s *SubscriptionService) Upgrade(ctx context.Context, p Principal) (UpgradeResult, error) {
	if _, err := s.profiles.ProfileByUserID(ctx, p.UserID); err != nil {
		return UpgradeResult{}, err
	}

	res, err := s.gateway.Charge(ctx, PaymentRequest{
		UserID:         p.UserID,
		AmountCents:    s.plan.PriceCents,
		Currency:       s.plan.Currency,
		IdempotencyKey: uuid.NewString(),
		Description:    "premium subscription",
	})
	if err != nil {
		s.log.Error("payment charge failed", "user", p.UserID, "err", err)
		return UpgradeResult{}, err
	}
	if !res.Approved {
		s.log.Info("payment declined", "user", p.UserID, "reason", res.Message)
		return UpgradeResult{}, fmt.Errorf("%w: %s", domain.ErrPaymentDeclined, res.Message)
	}

	start := s.clock().UTC()
	profile, err := s.profiles.ActivateSubscription(ctx, p.UserID, start, start.Add(SubscriptionPeriod))
	if err != nil {
		return UpgradeResult{}, err
	}
	out := UpgradeResult{Profile: profile, TransactionID: res.TransactionID}

	if p.SessionID != "" {
		pending, ok, err := s.resume.Take(ctx, p.SessionID)
		switch {
		case err != nil:
			s.log.Warn("take pending resource", "session", p.SessionID, "err", err)
		case ok:
			out.Resume = &pending
		}
	}
	s.log.Info("subscription activated", "user", p.UserID, "tx", res.TransactionID)
	return out, nil
}

// ExpireSubscriptions clears every subscription past its end date.
func (s *SubscriptionService) ExpireSubscriptions(ctx context.Context) (int, error) {
	n, err := s.profiles.ExpireSubscriptions(ctx, s.clock().UTC())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("subscriptions expired", "count", n)
	}
	return n, nil
}
