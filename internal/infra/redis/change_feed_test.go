package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"learnhub-service/internal/logging"
)

type signalRefresher chan struct{}

func (r signalRefresher) LeaderboardChanged(context.Context) {
	select {
	case r <- struct{}{}:
	default:
	}
}

func TestChangeFeedRelaysSignals(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := newClient(mr)
	feed := NewChangeFeed(client, "learnhub:leaderboard", logging.NewNop())
	got := make(signalRefresher, 1)
	if err := feed.Start(ctx, got); err != nil {
		t.Fatalf("start: %v", err)
	}

	other := NewChangeFeed(newClient(mr), "learnhub:leaderboard", logging.NewNop())
	other.LeaderboardChanged(ctx)

	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected relayed change signal")
	}
}
