package redis

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"learnhub-service/internal/logging"
)

// Refresher is told to recompute and push the leaderboard locally.
type Refresher interface {
	LeaderboardChanged(ctx context.Context)
}

// ChangeFeed relays "leaderboard changed" signals between service instances over
// Redis pub/sub. Publishing is what services call; Start forwards every signal,
// including this instance's own, to the local hub.
type ChangeFeed struct {
	client  *redis.Client
	channel string
	origin  string
	log     *logging.Logger
}

func NewChangeFeed(client *redis.Client, channel string, log *logging.Logger) *ChangeFeed {
	host, _ := os.Hostname()
	return &ChangeFeed{
		client:  client,
		channel: channel,
		origin:  fmt.Sprintf("%s:%d", host, os.Getpid()),
		log:     log.With("component", "leaderboard-feed"),
	}
}

// LeaderboardChanged publishes a change signal. Failures are logged only.
func (f *ChangeFeed) LeaderboardChanged(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := f.client.Publish(ctx, f.channel, f.origin).Err(); err != nil {
		f.log.Warn("publish leaderboard change", "err", err)
	}
}

// Start subscribes to the channel and calls local for each signal until ctx ends.
func (f *ChangeFeed) Start(ctx context.Context, local Refresher) error {
	sub := f.client.Subscribe(ctx, f.channel)
	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				f.log.Debug("leaderboard change", "origin", m.Payload)
				local.LeaderboardChanged(ctx)
			}
		}
	}()
	return nil
}
