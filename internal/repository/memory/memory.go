// Package memory provides an in-process implementation of the wallet stores
// for tests and local development. Units of work are serialized and rolled
// back on error.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"microwallet/internal/domain"
	"microwallet/internal/repository"

	"github.com/shopspring/decimal"
)

type state struct {
	users        map[int64]domain.User
	transactions []domain.Transaction
	withdrawals  map[int64]domain.WithdrawalRequest
	messages     []domain.ChatMessage
	audit        []domain.AuditLog
	nextID       int64
}

func (st *state) clone() state {
	c := state{
		users:        make(map[int64]domain.User, len(st.users)),
		transactions: append([]domain.Transaction(nil), st.transactions...),
		withdrawals:  make(map[int64]domain.WithdrawalRequest, len(st.withdrawals)),
		messages:     append([]domain.ChatMessage(nil), st.messages...),
		audit:        append([]domain.AuditLog(nil), st.audit...),
		nextID:       st.nextID,
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.withdrawals {
		c.withdrawals[k] = v
	}
	return c
}

func (st *state) id() int64 {
	st.nextID++
	return st.nextID
}

// Store is a mutex-guarded in-memory wallet store
type Store struct {
	mu  sync.RWMutex
	st  state
	now func() time.Time
}

func New() *Store {
	return &Store{
		st: state{
			users:       make(map[int64]domain.User),
			withdrawals: make(map[int64]domain.WithdrawalRequest),
		},
		now: time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// InTx runs fn with exclusive access; on error every change made by fn is discarded
func (s *Store) InTx(ctx context.Context, fn func(repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&memTx{s: s}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Users

func (s *Store) GetByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetByPhone(_ context.Context, phone string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.userWhere(func(u domain.User) bool { return u.Phone == phone })
}

func (s *Store) UpdateName(_ context.Context, id int64, name string) error {
	return s.updateUser(id, func(u *domain.User) error {
		u.Name = name
		return nil
	})
}

func (s *Store) UpdatePassword(_ context.Context, id int64, hash string) error {
	return s.updateUser(id, func(u *domain.User) error {
		u.PasswordHash = hash
		return nil
	})
}

func (s *Store) SetWithdrawalPIN(_ context.Context, id int64, previous, hash string) error {
	return s.updateUser(id, func(u *domain.User) error {
		if u.WithdrawalPINHash != previous {
			return repository.ErrStaleUpdate
		}
		u.WithdrawalPINHash = hash
		return nil
	})
}

func (s *Store) updateUser(id int64, fn func(*domain.User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.st.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := fn(&u); err != nil {
		return err
	}
	s.st.users[id] = u
	return nil
}

func (st *state) userWhere(match func(domain.User) bool) (*domain.User, error) {
	for _, u := range st.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (st *state) countUsers(match func(domain.User) bool) int {
	n := 0
	for _, u := range st.users {
		if match(u) {
			n++
		}
	}
	return n
}

// Ledger reads

func (s *Store) RecentTransactions(_ context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Transaction{}
	for i := len(s.st.transactions) - 1; i >= 0 && len(out) < limit; i-- {
		if t := s.st.transactions[i]; t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) RecentWithdrawals(_ context.Context, userID int64, limit int) ([]domain.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.st.withdrawalsWhere(func(w domain.WithdrawalRequest) bool { return w.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) PendingWithdrawals(_ context.Context, limit int) ([]domain.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.st.withdrawalsWhere(func(w domain.WithdrawalRequest) bool {
		return w.Status == domain.WithdrawalStatusPending
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (st *state) withdrawalsWhere(match func(domain.WithdrawalRequest) bool) []domain.WithdrawalRequest {
	out := []domain.WithdrawalRequest{}
	for _, w := range st.withdrawals {
		if match(w) {
			out = append(out, w)
		}
	}
	return out
}

// Referrals

func (s *Store) ReferralsByCode(_ context.Context, code string, limit int) ([]domain.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Referral{}
	for _, u := range s.st.users {
		if u.ReferredBy == code {
			out = append(out, domain.Referral{UserID: u.ID, Name: u.Name, Phone: u.Phone, JoinedAt: u.CreatedAt})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID > out[j].UserID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) ReferralEarnings(_ context.Context, userID int64) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := decimal.Zero
	for _, t := range s.st.transactions {
		if t.UserID == userID && t.Type == domain.TxReferralBonus {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

// PlatformStats mirrors the postgres aggregation
func (s *Store) PlatformStats(_ context.Context, since time.Time) (*domain.PlatformStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := &domain.PlatformStats{}
	for _, u := range s.st.users {
		out.TotalUsers++
		if !u.CreatedAt.Before(since) {
			out.NewUsersToday++
		}
		if u.ReferredBy != "" {
			out.ReferredUsers++
		}
		out.TotalBalance = out.TotalBalance.Add(u.Balance)
	}
	for _, t := range s.st.transactions {
		switch t.Type {
		case domain.TxReferralBonus:
			out.ReferralBonusPaid = out.ReferralBonusPaid.Add(t.Amount)
		case domain.TxSignupBonus:
			out.SignupBonusPaid = out.SignupBonusPaid.Add(t.Amount)
		}
	}
	for _, w := range s.st.withdrawals {
		switch w.Status {
		case domain.WithdrawalStatusPending:
			out.PendingWithdrawals++
			out.PendingAmount = out.PendingAmount.Add(w.Amount)
		case domain.WithdrawalStatusCompleted:
			out.TotalWithdrawn = out.TotalWithdrawn.Add(w.Amount)
		}
	}
	return out, nil
}

// Chat

func (s *Store) AppendMessage(_ context.Context, m *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.st.id()
	m.CreatedAt = s.now()
	s.st.messages = append(s.st.messages, *m)
	return nil
}

func (s *Store) RecentMessages(_ context.Context, userID int64, limit int) ([]domain.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.ChatMessage{}
	for i := len(s.st.messages) - 1; i >= 0 && len(out) < limit; i-- {
		if m := s.st.messages[i]; m.UserID == userID {
			out = append(out, m)
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (s *Store) ClearMessages(_ context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.st.messages[:0]
	for _, m := range s.st.messages {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	s.st.messages = kept
	return nil
}

// Audit

func (s *Store) CreateAuditLog(_ context.Context, log *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log.ID = s.st.id()
	log.CreatedAt = s.now()
	s.st.audit = append(s.st.audit, *log)
	return nil
}

func (s *Store) AuditLogsByUser(_ context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.AuditLog
	for i := len(s.st.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if l := s.st.audit[i]; l.UserID == userID {
			out = append(out, &l)
		}
	}
	return out, nil
}

// memTx operates on the store state while InTx holds the write lock
type memTx struct {
	s *Store
}

func (t *memTx) LockSignups(context.Context) error { return nil }

func (t *memTx) LockUser(_ context.Context, id int64) (*domain.User, error) {
	u, ok := t.s.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (t *memTx) FindUserByPhone(_ context.Context, phone string) (*domain.User, error) {
	return t.s.st.userWhere(func(u domain.User) bool { return u.Phone == phone })
}

func (t *memTx) FindUserByReferralCode(_ context.Context, code string) (*domain.User, error) {
	return t.s.st.userWhere(func(u domain.User) bool { return u.ReferralCode == code })
}

func (t *memTx) CountUsersBySignupIP(_ context.Context, ip string) (int, error) {
	return t.s.st.countUsers(func(u domain.User) bool { return u.SignupIP == ip }), nil
}

func (t *memTx) CountUsersByDevice(_ context.Context, deviceID string) (int, error) {
	return t.s.st.countUsers(func(u domain.User) bool { return u.DeviceID == deviceID }), nil
}

func (t *memTx) InsertUser(_ context.Context, u *domain.User) error {
	for _, existing := range t.s.st.users {
		if existing.Phone == u.Phone || existing.ReferralCode == u.ReferralCode {
			return repository.ErrDuplicate
		}
	}
	u.ID = t.s.st.id()
	u.Balance = decimal.Zero
	u.TotalReferrals = 0
	u.CreatedAt = t.s.now()
	t.s.st.users[u.ID] = *u
	return nil
}

func (t *memTx) AddBalance(_ context.Context, userID int64, delta decimal.Decimal) (decimal.Decimal, error) {
	u, ok := t.s.st.users[userID]
	if !ok {
		return decimal.Zero, repository.ErrNotFound
	}
	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, repository.ErrNegativeBalance
	}
	u.Balance = next
	t.s.st.users[userID] = u
	return next, nil
}

func (t *memTx) IncrementReferrals(_ context.Context, userID int64) error {
	u, ok := t.s.st.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.TotalReferrals++
	t.s.st.users[userID] = u
	return nil
}

func (t *memTx) InsertTransaction(_ context.Context, tr *domain.Transaction) error {
	if _, ok := t.s.st.users[tr.UserID]; !ok {
		return repository.ErrNotFound
	}
	tr.ID = t.s.st.id()
	tr.CreatedAt = t.s.now()
	t.s.st.transactions = append(t.s.st.transactions, *tr)
	return nil
}

func (t *memTx) HasPendingWithdrawal(_ context.Context, userID int64) (bool, error) {
	for _, w := range t.s.st.withdrawals {
		if w.UserID == userID && w.Status == domain.WithdrawalStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertWithdrawal(ctx context.Context, w *domain.WithdrawalRequest) error {
	if w.Status == domain.WithdrawalStatusPending {
		pending, _ := t.HasPendingWithdrawal(ctx, w.UserID)
		if pending {
			return repository.ErrDuplicate
		}
	}
	w.ID = t.s.st.id()
	w.CreatedAt = t.s.now()
	t.s.st.withdrawals[w.ID] = *w
	return nil
}

func (t *memTx) LockWithdrawal(_ context.Context, id int64) (*domain.WithdrawalRequest, error) {
	w, ok := t.s.st.withdrawals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &w, nil
}

func (t *memTx) ResolveWithdrawal(_ context.Context, id int64, status domain.WithdrawalStatus, note string) error {
	w, ok := t.s.st.withdrawals[id]
	if !ok || w.Status != domain.WithdrawalStatusPending {
		return repository.ErrStaleUpdate
	}
	now := t.s.now()
	w.Status = status
	w.Note = note
	w.ResolvedAt = &now
	t.s.st.withdrawals[id] = w
	return nil
}

var _ repository.Tx = (*memTx)(nil)
