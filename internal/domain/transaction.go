package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of ledger event a Transaction records
type TransactionType string

const (
	TxSignupBonus   TransactionType = "signup_bonus"
	TxReferralBonus TransactionType = "referral_bonus"
	TxWithdraw      TransactionType = "withdraw"
	TxTransfer      TransactionType = "transfer"
)

// Transaction is an append-only ledger row. Amount is the signed delta
// applied to the user's balance, not a running total.
type Transaction struct {
	ID          int64           `db:"id" json:"id"`
	UserID      int64           `db:"user_id" json:"user_id"`
	Type        TransactionType `db:"type" json:"type"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// BalanceEvent is pushed to a user's live sessions after a ledger entry commits
type BalanceEvent struct {
	UserID      int64           `json:"-"`
	Balance     decimal.Decimal `json:"balance"`
	Delta       decimal.Decimal `json:"delta"`
	Type        TransactionType `json:"tx_type"`
	Description string          `json:"description"`
}
