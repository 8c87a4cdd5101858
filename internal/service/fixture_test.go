package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"microwallet/internal/domain"
	"microwallet/internal/repository/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.BalanceEvent
}

func (n *recordingNotifier) Publish(events ...domain.BalanceEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, events...)
}

func (n *recordingNotifier) all() []domain.BalanceEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.BalanceEvent(nil), n.events...)
}

type fixture struct {
	store       *memory.Store
	notifier    *recordingNotifier
	hasher      *Hasher
	tokens      *TokenService
	ledger      *Ledger
	accounts    *AccountService
	withdrawals *WithdrawalService
	transfers   *TransferService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	notifier := &recordingNotifier{}
	hasher := NewHasher(bcrypt.MinCost)
	tokens := NewTokenService("test-secret", time.Hour)
	audit := NewAuditService(store)
	ledger := NewLedger(store, notifier)

	return &fixture{
		store:    store,
		notifier: notifier,
		hasher:   hasher,
		tokens:   tokens,
		ledger:   ledger,
		accounts: NewAccountService(AccountDeps{
			Users:        store,
			Transactions: store,
			Ledger:       ledger,
			Tokens:       tokens,
			Hasher:       hasher,
			Audit:        audit,
		}),
		withdrawals: NewWithdrawalService(store, store, ledger, hasher, audit),
		transfers:   NewTransferService(store, ledger, hasher, audit),
	}
}

// signup registers a user from ip/device with an optional referral code
func (f *fixture) signup(t *testing.T, phone, ip, device, referral string) *SignupResult {
	t.Helper()
	res, err := f.accounts.Signup(context.Background(), SignupInput{
		Phone:    phone,
		Name:     "user " + phone,
		Password: "secret123",
		Referral: referral,
		DeviceID: device,
		Request:  BindingRequest{SourceIP: ip, DeviceID: device},
	})
	require.NoError(t, err)
	return res
}

// fund credits the user directly through the ledger
func (f *fixture) fund(t *testing.T, userID int64, amount string) {
	t.Helper()
	err := f.ledger.Atomically(context.Background(), func(tx *LedgerTx) error {
		_, err := tx.Apply(context.Background(), userID, decimal.RequireFromString(amount), domain.TxTransfer, "seed")
		return err
	})
	require.NoError(t, err)
}

func (f *fixture) setPIN(t *testing.T, u *domain.User, pin string) {
	t.Helper()
	require.NoError(t, f.accounts.SetWithdrawalPIN(context.Background(), u.ID, pin, bindingOf(u)))
}

func (f *fixture) balance(t *testing.T, userID int64) decimal.Decimal {
	t.Helper()
	b, err := f.accounts.Balance(context.Background(), userID)
	require.NoError(t, err)
	return b
}

func (f *fixture) transactions(t *testing.T, userID int64) []domain.Transaction {
	t.Helper()
	txs, err := f.store.RecentTransactions(context.Background(), userID, 100)
	require.NoError(t, err)
	return txs
}

func bindingOf(u *domain.User) BindingRequest {
	return BindingRequest{SourceIP: u.SignupIP, DeviceID: u.DeviceID}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var _ TxRunner = (*memory.Store)(nil)
