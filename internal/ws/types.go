package ws

import (
	"microwallet/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	MsgReady         = "ready"
	MsgBalanceUpdate = "balance_update"
)

// BalanceUpdate is the payload pushed after a ledger entry commits
type BalanceUpdate struct {
	Type        string                 `json:"type"`
	Balance     decimal.Decimal        `json:"balance"`
	Delta       decimal.Decimal        `json:"delta"`
	TxType      domain.TransactionType `json:"tx_type"`
	Description string                 `json:"description"`
}

func newBalanceUpdate(ev domain.BalanceEvent) BalanceUpdate {
	return BalanceUpdate{
		Type:        MsgBalanceUpdate,
		Balance:     ev.Balance,
		Delta:       ev.Delta,
		TxType:      ev.Type,
		Description: ev.Description,
	}
}
