package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Referral is a user who signed up with someone's referral code
type Referral struct {
	UserID   int64     `json:"user_id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	JoinedAt time.Time `json:"joined_at"`
}

type ReferralStats struct {
	TotalReferrals int             `json:"total_referrals"`
	TotalEarned    decimal.Decimal `json:"total_earned"`
}
