package repository

import (
	"context"

	"microwallet/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// ReferralsByCode returns users who signed up with code, newest first
func (r *ReferralRepository) ReferralsByCode(ctx context.Context, code string, limit int) ([]domain.Referral, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, phone, created_at
		FROM users
		WHERE referred_by = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, code, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Referral{}
	for rows.Next() {
		var ref domain.Referral
		if err := rows.Scan(&ref.UserID, &ref.Name, &ref.Phone, &ref.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// ReferralEarnings sums the referral bonuses credited to userID
func (r *ReferralRepository) ReferralEarnings(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND type = 'referral_bonus'
	`, userID).Scan(&total)
	return total, err
}
