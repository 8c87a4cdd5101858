package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents withdrawal processing status
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
)

// WithdrawalMethod is a supported payout rail
type WithdrawalMethod string

const (
	MethodUSDTBEP20 WithdrawalMethod = "usdt_bep20"
	MethodUSDTTRC20 WithdrawalMethod = "usdt_trc20"
	MethodPayPal    WithdrawalMethod = "paypal"
)

// Valid reports whether m is one of the supported payout rails.
func (m WithdrawalMethod) Valid() bool {
	switch m {
	case MethodUSDTBEP20, MethodUSDTTRC20, MethodPayPal:
		return true
	}
	return false
}

// WithdrawalRequest is a payout request. The amount is debited from the
// balance when the request is created and refunded if it is rejected.
type WithdrawalRequest struct {
	ID         int64            `db:"id" json:"id"`
	UserID     int64            `db:"user_id" json:"user_id"`
	Amount     decimal.Decimal  `db:"amount" json:"amount"`
	Method     WithdrawalMethod `db:"method" json:"method"`
	Address    string           `db:"address" json:"address"`
	Status     WithdrawalStatus `db:"status" json:"status"`
	Note       string           `db:"note" json:"note,omitempty"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	ResolvedAt *time.Time       `db:"resolved_at" json:"resolved_at,omitempty"`
}
