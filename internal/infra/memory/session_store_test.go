package memory

import (
	"context"
	"testing"
	"time"

	"learnhub-service/internal/domain"
)

func TestSessionStoreTakeIsReadOnce(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(time.Minute)
	want := domain.PendingResource{Kind: domain.KindCourse, ID: "intro-to-go"}

	if err := store.Remember(ctx, "sid-1", want); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if got, ok, _ := store.Peek(ctx, "sid-1"); !ok || got != want {
		t.Fatalf("expected peek to see %+v, got %+v ok=%v", want, got, ok)
	}
	if got, ok, _ := store.Take(ctx, "sid-1"); !ok || got != want {
		t.Fatalf("expected take to return %+v, got %+v ok=%v", want, got, ok)
	}
	if _, ok, _ := store.Take(ctx, "sid-1"); ok {
		t.Fatalf("expected slot to be empty after take")
	}
}

func TestSessionStoreOverwritesAndExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewSessionStore(time.Minute)
	store.clock = func() time.Time { return now }

	_ = store.Remember(ctx, "sid", domain.PendingResource{Kind: domain.KindCourse, ID: "a"})
	_ = store.Remember(ctx, "sid", domain.PendingResource{Kind: domain.KindArticle, ID: "7"})
	if got, _, _ := store.Peek(ctx, "sid"); got.Kind != domain.KindArticle {
		t.Fatalf("expected last remembered resource, got %+v", got)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := store.Peek(ctx, "sid"); ok {
		t.Fatalf("expected slot to expire")
	}
}
