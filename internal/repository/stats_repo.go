package repository

import (
	"context"
	"time"

	"microwallet/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

// PlatformStats aggregates users, bonuses and withdrawals. since marks the
// start of "today".
func (r *StatsRepository) PlatformStats(ctx context.Context, since time.Time) (*domain.PlatformStats, error) {
	s := &domain.PlatformStats{}

	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE referred_by <> ''),
			COALESCE(SUM(balance), 0)
		FROM users
	`, since).Scan(&s.TotalUsers, &s.NewUsersToday, &s.ReferredUsers, &s.TotalBalance)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE type = 'referral_bonus'), 0),
			COALESCE(SUM(amount) FILTER (WHERE type = 'signup_bonus'), 0)
		FROM transactions
	`).Scan(&s.ReferralBonusPaid, &s.SignupBonusPaid)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0)
		FROM withdrawal_requests
	`).Scan(&s.PendingWithdrawals, &s.PendingAmount, &s.TotalWithdrawn)
	if err != nil {
		return nil, err
	}

	return s, nil
}
