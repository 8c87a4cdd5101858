package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID                int64           `db:"id" json:"id"`
	Phone             string          `db:"phone" json:"phone"`
	Name              string          `db:"name" json:"name"`
	PasswordHash      string          `db:"password_hash" json:"-"`
	ReferralCode      string          `db:"referral_code" json:"referral_code"`
	ReferredBy        string          `db:"referred_by" json:"referred_by,omitempty"`
	Balance           decimal.Decimal `db:"balance" json:"balance"`
	TotalReferrals    int             `db:"total_referrals" json:"total_referrals"`
	SignupIP          string          `db:"signup_ip" json:"-"`
	DeviceID          string          `db:"device_id" json:"-"`
	WithdrawalPINHash string          `db:"withdrawal_pin_hash" json:"-"`
	IsVerified        bool            `db:"is_verified" json:"is_verified"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// HasWithdrawalPIN reports whether the account has a PIN configured.
func (u *User) HasWithdrawalPIN() bool {
	return u.WithdrawalPINHash != ""
}
