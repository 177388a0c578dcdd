package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"learnhub-service/internal/domain"
)

// StandingsReader aggregates leaderboard inputs in SQL; ordering stays in app.Rank.
type StandingsReader struct {
	pool *pgxpool.Pool
}

func NewStandingsReader(pool *pgxpool.Pool) *StandingsReader {
	return &StandingsReader{pool: pool}
}

const standingsQuery = `
SELECT p.id, p.user_id, u.username, p.role, p.subscription_status,
       p.subscription_start, p.subscription_end, p.points,
       (SELECT AVG(r.score)::float8 FROM quiz_results AS r WHERE r.user_id = p.user_id),
       (SELECT COUNT(*) FROM progress AS g WHERE g.user_id = p.user_id AND g.completed)
FROM profiles AS p
JOIN users AS u ON u.id = p.user_id`

func (s *StandingsReader) Standings(ctx context.Context) ([]domain.Standing, error) {
	rows, err := s.pool.Query(ctx, standingsQuery)
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	out := []domain.Standing{}
	for rows.Next() {
		var (
			st   domain.Standing
			role string
		)
		p := &st.Profile
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.Username, &role, &p.SubscriptionStatus,
			&p.SubscriptionStart, &p.SubscriptionEnd, &p.Points,
			&st.AvgScore, &st.CompletedCount,
		); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		p.Role = domain.Role(role)
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read standings: %w", err)
	}
	return out, nil
}
