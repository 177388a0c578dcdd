package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"learnhub-service/internal/domain"
)

func TestSessionStoreTakeClearsKey(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)
	want := domain.PendingResource{Kind: domain.KindCourse, ID: "deep-dive"}

	if err := store.Remember(ctx, "sid-1", want); err != nil {
		t.Fatalf("remember: %v", err)
	}
	if !mr.Exists("learnhub:session:sid-1:pending") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("learnhub:session:sid-1:pending"); ttl != time.Minute {
		t.Fatalf("expected one minute ttl, got %v", ttl)
	}

	if got, ok, err := store.Peek(ctx, "sid-1"); err != nil || !ok || got != want {
		t.Fatalf("peek: got %+v ok=%v err=%v", got, ok, err)
	}
	if got, ok, err := store.Take(ctx, "sid-1"); err != nil || !ok || got != want {
		t.Fatalf("take: got %+v ok=%v err=%v", got, ok, err)
	}
	if mr.Exists("learnhub:session:sid-1:pending") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok, err := store.Take(ctx, "sid-1"); err != nil || ok {
		t.Fatalf("expected empty slot, ok=%v err=%v", ok, err)
	}
}

func TestSessionStoreExpires(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewSessionStore(newClient(mr), time.Minute)
	_ = store.Remember(ctx, "sid", domain.PendingResource{Kind: domain.KindQuiz, ID: "4"})
	mr.FastForward(2 * time.Minute)

	if _, ok, _ := store.Peek(ctx, "sid"); ok {
		t.Fatalf("expected slot to expire")
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
