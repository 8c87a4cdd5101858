package domain

import "github.com/shopspring/decimal"

// PlatformStats is the operator overview served to admins
type PlatformStats struct {
	TotalUsers         int64           `json:"total_users"`
	NewUsersToday      int64           `json:"new_users_today"`
	ReferredUsers      int64           `json:"referred_users"`
	TotalBalance       decimal.Decimal `json:"total_balance"`
	ReferralBonusPaid  decimal.Decimal `json:"referral_bonus_paid"`
	SignupBonusPaid    decimal.Decimal `json:"signup_bonus_paid"`
	PendingWithdrawals int64           `json:"pending_withdrawals"`
	PendingAmount      decimal.Decimal `json:"pending_amount"`
	TotalWithdrawn     decimal.Decimal `json:"total_withdrawn"`
}
