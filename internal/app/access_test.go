package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"learnhub-service/internal/app"
	"learnhub-service/internal/domain"
)

func TestCanAccess(t *testing.T) {
	now := time.Now()
	end := now.Add(time.Hour)
	free := domain.Profile{}
	paid := domain.Profile{SubscriptionStatus: true, SubscriptionEnd: &end}

	if !app.CanAccess(free, domain.Course{}, now) {
		t.Fatalf("non-premium course must be open to everyone")
	}
	if app.CanAccess(free, domain.Article{IsPremium: true}, now) {
		t.Fatalf("premium article must be closed to free users")
	}
	if !app.CanAccess(paid, domain.Quiz{IsPremium: true}, now) {
		t.Fatalf("premium quiz must be open to subscribers")
	}
}

func TestGateRemembersPendingCourse(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	open := f.course(t, "Open Course", false)
	locked := f.course(t, "Deep Dive", true)

	if _, decision, err := f.courses.Detail(ctx, alice, open.Slug); err != nil || !decision.Allowed {
		t.Fatalf("expected open course accessible, allowed=%v err=%v", decision.Allowed, err)
	}
	if _, ok, _ := f.resume.Peek(ctx, alice.SessionID); ok {
		t.Fatalf("open course must not fill the resume slot")
	}

	_, decision, err := f.courses.Detail(ctx, alice, locked.Slug)
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	want := domain.PendingResource{Kind: domain.KindCourse, ID: "deep-dive"}
	if decision.Allowed || decision.Pending != want {
		t.Fatalf("expected denial pointing at %+v, got %+v", want, decision)
	}
	if got, ok, _ := f.resume.Peek(ctx, alice.SessionID); !ok || got != want {
		t.Fatalf("expected resume slot %+v, got %+v ok=%v", want, got, ok)
	}
}

func TestGateMissingProfile(t *testing.T) {
	f := newFixture(t)
	course := f.course(t, "Anything", false)
	_, _, err := f.courses.Detail(context.Background(), app.Principal{UserID: 77}, course.Slug)
	if !errors.Is(err, domain.ErrProfileMissing) {
		t.Fatalf("expected ErrProfileMissing, got %v", err)
	}
}

func TestUpgradeResumesPendingResource(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	locked := f.course(t, "Deep Dive", true)
	_, _, _ = f.courses.Detail(ctx, alice, locked.Slug)

	page, err := f.subs.Required(ctx, alice)
	if err != nil {
		t.Fatalf("required: %v", err)
	}
	if page.Pending == nil || page.Pending.ID != locked.Slug {
		t.Fatalf("expected required page to peek the pending course, got %+v", page.Pending)
	}

	res, err := f.subs.Upgrade(ctx, alice)
	if err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	if res.Resume == nil || res.Resume.ID != locked.Slug {
		t.Fatalf("expected to resume at %s, got %+v", locked.Slug, res.Resume)
	}
	if !res.Profile.HasPremiumAccess(time.Now()) || res.Profile.Role != domain.RolePremium {
		t.Fatalf("expected premium profile, got %+v", res.Profile)
	}
	if res.Profile.SubscriptionEnd.Sub(*res.Profile.SubscriptionStart) != app.SubscriptionPeriod {
		t.Fatalf("expected a one-year subscription")
	}
	if _, ok, _ := f.resume.Peek(ctx, alice.SessionID); ok {
		t.Fatalf("expected resume slot consumed")
	}
	if len(f.gateway.calls) != 1 || f.gateway.calls[0].AmountCents != 4999 || f.gateway.calls[0].IdempotencyKey == "" {
		t.Fatalf("unexpected charge %+v", f.gateway.calls)
	}

	if _, decision, err := f.courses.Detail(ctx, alice, locked.Slug); err != nil || !decision.Allowed {
		t.Fatalf("expected access after upgrade, allowed=%v err=%v", decision.Allowed, err)
	}
}

func TestUpgradeDeclinedLeavesProfile(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	_ = f.resume.Remember(ctx, alice.SessionID, domain.PendingResource{Kind: domain.KindArticle, ID: "3"})
	f.gateway.result = app.PaymentResult{Approved: false, Message: "card declined"}

	_, err := f.subs.Upgrade(ctx, alice)
	if !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}
	profile, _ := f.store.ProfileByUserID(ctx, alice.UserID)
	if profile.SubscriptionStatus || profile.Role != domain.RoleFree {
		t.Fatalf("declined payment must not change the profile: %+v", profile)
	}
	if _, ok, _ := f.resume.Peek(ctx, alice.SessionID); !ok {
		t.Fatalf("declined payment must keep the resume slot")
	}
}

func TestUpgradeGatewayDown(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	f.gateway.err = domain.ErrPaymentUnavailable

	if _, err := f.subs.Upgrade(context.Background(), alice); !errors.Is(err, domain.ErrPaymentUnavailable) {
		t.Fatalf("expected ErrPaymentUnavailable, got %v", err)
	}
}

func TestExpireSubscriptions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice, bob := f.user(t, "alice"), f.user(t, "bob")

	past := time.Now().Add(-48 * time.Hour)
	if _, err := f.store.ActivateSubscription(ctx, alice.UserID, past.Add(-time.Hour), past); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if _, err := f.subs.Upgrade(ctx, bob); err != nil {
		t.Fatalf("upgrade: %v", err)
	}

	n, err := f.subs.ExpireSubscriptions(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one expiry, got n=%d err=%v", n, err)
	}
	a, _ := f.store.ProfileByUserID(ctx, alice.UserID)
	b, _ := f.store.ProfileByUserID(ctx, bob.UserID)
	if a.SubscriptionStatus || !b.SubscriptionStatus {
		t.Fatalf("unexpected statuses alice=%v bob=%v", a.SubscriptionStatus, b.SubscriptionStatus)
	}
}
