package service

import (
	"context"

	"microwallet/internal/domain"
	"microwallet/internal/repository"
)

// TxRunner executes a unit of work atomically
type TxRunner interface {
	InTx(ctx context.Context, fn func(repository.Tx) error) error
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	UpdateName(ctx context.Context, id int64, name string) error
	UpdatePassword(ctx context.Context, id int64, hash string) error
	SetWithdrawalPIN(ctx context.Context, id int64, previous, hash string) error
}

type TransactionReader interface {
	RecentTransactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error)
}

type WithdrawalReader interface {
	RecentWithdrawals(ctx context.Context, userID int64, limit int) ([]domain.WithdrawalRequest, error)
	PendingWithdrawals(ctx context.Context, limit int) ([]domain.WithdrawalRequest, error)
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, log *domain.AuditLog) error
	AuditLogsByUser(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error)
}

// Notifier receives balance events after they are committed
type Notifier interface {
	Publish(events ...domain.BalanceEvent)
}
