package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"learnhub-service/internal/domain"
	"learnhub-service/internal/logging"
)

// Rank orders standings by average quiz score (missing averages last), then by
// completed courses, then by user id, and keeps the first limit entries.
// A limit <= 0 keeps everything.
func Rank(standings []domain.Standing, limit int) []domain.Standing {
	ranked := make([]domain.Standing, len(standings))
	copy(ranked, standings)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch {
		case a.AvgScore != nil && b.AvgScore == nil:
			return true
		case a.AvgScore == nil && b.AvgScore != nil:
			return false
		case a.AvgScore != nil && *a.AvgScore != *b.AvgScore:
			return *a.AvgScore > *b.AvgScore
		}
		if a.CompletedCount != b.CompletedCount {
			return a.CompletedCount > b.CompletedCount
		}
		return a.Profile.UserID < b.Profile.UserID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// LeaderboardService recomputes the ranking on every call.
type LeaderboardService struct {
	reader StandingsReader
	limit  int
	clock  func() time.Time
}

func NewLeaderboardService(reader StandingsReader, limit int) *LeaderboardService {
	return &LeaderboardService{reader: reader, limit: limit, clock: time.Now}
}

func (s *LeaderboardService) Top(ctx context.Context) (domain.Leaderboard, error) {
	standings, err := s.reader.Standings(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	return domain.Leaderboard{Entries: Rank(standings, s.limit), UpdatedAt: s.clock()}, nil
}

// Hub fans fresh leaderboards out to live subscribers. It implements Notifier.
type Hub struct {
	board *LeaderboardService
	log   *logging.Logger

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

func NewHub(board *LeaderboardService, log *logging.Logger) *Hub {
	return &Hub{
		board:       board,
		log:         log,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// Subscribe returns a channel primed with the current leaderboard.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *Hub) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := h.board.Top(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel, nil
}

// LeaderboardChanged recomputes the top-N and pushes it to every subscriber.
func (h *Hub) LeaderboardChanged(ctx context.Context) {
	h.mu.Lock()
	idle := len(h.subscribers) == 0
	h.mu.Unlock()
	if idle {
		return
	}

	lb, err := h.board.Top(ctx)
	if err != nil {
		h.log.Warn("recompute leaderboard", "err", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(lb)
}

func (h *Hub) broadcastLocked(lb domain.Leaderboard) {
	for ch := range h.subscribers {
		select {
		case ch <- lb:
		default:
			// Slow subscriber: replace its oldest update instead of blocking.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}

// Subscribers reports how many live subscriptions exist.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}
