package repository

import (
	"context"
	"fmt"

	"microwallet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Tx is the set of operations that run inside one atomic unit of work.
// Lock* methods hold a row lock until the unit commits or rolls back.
type Tx interface {
	LockSignups(ctx context.Context) error
	LockUser(ctx context.Context, id int64) (*domain.User, error)
	FindUserByPhone(ctx context.Context, phone string) (*domain.User, error)
	FindUserByReferralCode(ctx context.Context, code string) (*domain.User, error)
	CountUsersBySignupIP(ctx context.Context, ip string) (int, error)
	CountUsersByDevice(ctx context.Context, deviceID string) (int, error)
	InsertUser(ctx context.Context, u *domain.User) error
	AddBalance(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error)
	IncrementReferrals(ctx context.Context, userID int64) error
	InsertTransaction(ctx context.Context, t *domain.Transaction) error
	HasPendingWithdrawal(ctx context.Context, userID int64) (bool, error)
	InsertWithdrawal(ctx context.Context, w *domain.WithdrawalRequest) error
	LockWithdrawal(ctx context.Context, id int64) (*domain.WithdrawalRequest, error)
	ResolveWithdrawal(ctx context.Context, id int64, status domain.WithdrawalStatus, note string) error
}

// signupLockKey serializes signups so the IP and device counts taken by the
// referral rules cannot be raced by a concurrent signup.
const signupLockKey = 7_110_001

// TxManager runs units of work in a single PostgreSQL transaction
type TxManager struct {
	db           *pgxpool.Pool
	users        *UserRepository
	transactions *TransactionRepository
	withdrawals  *WithdrawalRepository
}

func NewTxManager(db *pgxpool.Pool) *TxManager {
	return &TxManager{
		db:           db,
		users:        NewUserRepository(db),
		transactions: NewTransactionRepository(db),
		withdrawals:  NewWithdrawalRepository(db),
	}
}

// InTx commits when fn returns nil and rolls back otherwise
func (m *TxManager) InTx(ctx context.Context, fn func(Tx) error) error {
	tx, err := m.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", translate(err))
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx, m: m}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", translate(err))
	}
	return nil
}

// Ping checks database connectivity
func (m *TxManager) Ping(ctx context.Context) error {
	return m.db.Ping(ctx)
}

type pgTx struct {
	tx pgx.Tx
	m  *TxManager
}

func (t *pgTx) LockSignups(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, signupLockKey)
	return err
}

func (t *pgTx) LockUser(ctx context.Context, id int64) (*domain.User, error) {
	return t.m.users.GetByIDForUpdateWithTx(ctx, t.tx, id)
}

func (t *pgTx) FindUserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return t.m.users.GetByPhoneWithTx(ctx, t.tx, phone)
}

func (t *pgTx) FindUserByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return t.m.users.GetByReferralCodeWithTx(ctx, t.tx, code)
}

func (t *pgTx) CountUsersBySignupIP(ctx context.Context, ip string) (int, error) {
	return t.m.users.CountBySignupIPWithTx(ctx, t.tx, ip)
}

func (t *pgTx) CountUsersByDevice(ctx context.Context, deviceID string) (int, error) {
	return t.m.users.CountByDeviceWithTx(ctx, t.tx, deviceID)
}

func (t *pgTx) InsertUser(ctx context.Context, u *domain.User) error {
	return t.m.users.CreateWithTx(ctx, t.tx, u)
}

func (t *pgTx) AddBalance(ctx context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	return t.m.users.AddBalanceWithTx(ctx, t.tx, userID, delta)
}

func (t *pgTx) IncrementReferrals(ctx context.Context, userID int64) error {
	return t.m.users.IncrementReferralsWithTx(ctx, t.tx, userID)
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr *domain.Transaction) error {
	return t.m.transactions.CreateWithTx(ctx, t.tx, tr)
}

func (t *pgTx) HasPendingWithdrawal(ctx context.Context, userID int64) (bool, error) {
	return t.m.withdrawals.HasPendingWithTx(ctx, t.tx, userID)
}

func (t *pgTx) InsertWithdrawal(ctx context.Context, w *domain.WithdrawalRequest) error {
	return t.m.withdrawals.CreateWithTx(ctx, t.tx, w)
}

func (t *pgTx) LockWithdrawal(ctx context.Context, id int64) (*domain.WithdrawalRequest, error) {
	return t.m.withdrawals.GetByIDForUpdateWithTx(ctx, t.tx, id)
}

func (t *pgTx) ResolveWithdrawal(ctx context.Context, id int64, status domain.WithdrawalStatus, note string) error {
	return t.m.withdrawals.ResolveWithTx(ctx, t.tx, id, status, note)
}
