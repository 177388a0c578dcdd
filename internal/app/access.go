package app

import (
	"context"
	"time"

	"learnhub-service/internal/domain"
	"learnhub-service/internal/logging"
)

// CanAccess reports whether profile may open resource at now.
func CanAccess(profile domain.Profile, resource domain.Gated, now time.Time) bool {
	if !resource.PremiumOnly() {
		return true
	}
	return profile.HasPremiumAccess(now)
}

// Decision is the outcome of the premium gate. When Allowed is false, Pending names
// the resource the caller resumes at after upgrading.
type Decision struct {
	Allowed bool                   `json:"allowed"`
	Pending domain.PendingResource `json:"pending"`
}

// AccessService applies the premium gate and fills the resume slot on denial.
type AccessService struct {
	profiles ProfileStore
	resume   ResumeStore
	clock    func() time.Time
	log      *logging.Logger
}

func NewAccessService(profiles ProfileStore, resume ResumeStore, log *logging.Logger) *AccessService {
	return &AccessService{profiles: profiles, resume: resume, clock: time.Now, log: log}
}

// Check loads the caller's profile and decides access to resource.
func (s *AccessService) Check(ctx context.Context, p Principal, resource domain.Gated) (domain.Profile, Decision, error) {
	profile, err := s.profiles.ProfileByUserID(ctx, p.UserID)
	if err != nil {
		return domain.Profile{}, Decision{}, err
	}
	return profile, s.decide(ctx, p, profile, resource), nil
}

func (s *AccessService) decide(ctx context.Context, p Principal, profile domain.Profile, resource domain.Gated) Decision {
	if CanAccess(profile, resource, s.clock()) {
		return Decision{Allowed: true}
	}
	pending := resource.Pending()
	if p.SessionID != "" {
		if err := s.resume.Remember(ctx, p.SessionID, pending); err != nil {
			s.log.Warn("remember pending resource", "session", p.SessionID, "kind", pending.Kind, "err", err)
		}
	}
	return Decision{Allowed: false, Pending: pending}
}

// HasPremium reports the caller's premium access without touching the resume slot.
func (s *AccessService) HasPremium(ctx context.Context, userID int64) (bool, error) {
	profile, err := s.profiles.ProfileByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	return profile.HasPremiumAccess(s.clock()), nil
}
