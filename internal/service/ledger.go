package service

import (
	"context"
	"errors"
	"fmt"

	"microwallet/internal/apperr"
	"microwallet/internal/domain"
	"microwallet/internal/logger"
	"microwallet/internal/metrics"
	"microwallet/internal/repository"

	"github.com/shopspring/decimal"
)

var (
	SignupBonus   = decimal.RequireFromString("0.50")
	ReferralBonus = decimal.RequireFromString("0.10")
)

// Signups from an IP already used by this many accounts earn no referral bonus
const ipThrottleThreshold = 3

var ErrInvalidReferralCode = apperr.Validation("Invalid referral code")

// Ledger applies balance mutations together with their transaction rows
type Ledger struct {
	store    TxRunner
	notifier Notifier
}

func NewLedger(store TxRunner, notifier Notifier) *Ledger {
	return &Ledger{store: store, notifier: notifier}
}

// LedgerTx is a unit of work on the ledger. Balance events produced by
// Apply are published only once the unit commits.
type LedgerTx struct {
	repository.Tx
	events []domain.BalanceEvent
}

// Atomically runs fn in one store transaction
func (l *Ledger) Atomically(ctx context.Context, fn func(*LedgerTx) error) error {
	var lt *LedgerTx
	err := l.store.InTx(ctx, func(tx repository.Tx) error {
		lt = &LedgerTx{Tx: tx}
		return fn(lt)
	})
	if err != nil {
		return err
	}

	for _, ev := range lt.events {
		metrics.LedgerEntries.WithLabelValues(string(ev.Type)).Inc()
	}
	if l.notifier != nil && len(lt.events) > 0 {
		l.notifier.Publish(lt.events...)
	}
	return nil
}

// Apply adds delta to the user's balance and appends a transaction row
// holding the signed delta. Callers check sufficiency before debiting.
func (t *LedgerTx) Apply(ctx context.Context, userID int64, delta decimal.Decimal, typ domain.TransactionType, description string) (decimal.Decimal, error) {
	balance, err := t.AddBalance(ctx, userID, delta)
	if err != nil {
		return decimal.Zero, fmt.Errorf("apply %s to user %d: %w", typ, userID, err)
	}

	if err := t.InsertTransaction(ctx, &domain.Transaction{
		UserID:      userID,
		Type:        typ,
		Amount:      delta,
		Description: description,
	}); err != nil {
		return decimal.Zero, fmt.Errorf("record %s for user %d: %w", typ, userID, err)
	}

	t.events = append(t.events, domain.BalanceEvent{
		UserID:      userID,
		Balance:     balance,
		Delta:       delta,
		Type:        typ,
		Description: description,
	})
	return balance, nil
}

// ReferralEligible is the anti-abuse rule for referral bonuses. The counts
// are of accounts that existed before the new signup.
func ReferralEligible(usersOnIP, usersOnDevice int, referrerDevice, newDevice string) bool {
	ipThrottled := usersOnIP >= ipThrottleThreshold
	deviceReused := usersOnDevice > 0
	return !ipThrottled && !deviceReused && referrerDevice != newDevice
}

// ReferralDecision is the outcome of evaluating a referral code at signup
type ReferralDecision struct {
	Referrer *domain.User
	Eligible bool
}

// EvaluateReferral resolves code and decides bonus eligibility for a signup
// from ip and deviceID. It must run before the new user is inserted.
func (t *LedgerTx) EvaluateReferral(ctx context.Context, code, ip, deviceID string) (*ReferralDecision, error) {
	referrer, err := t.FindUserByReferralCode(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidReferralCode
	}
	if err != nil {
		return nil, fmt.Errorf("resolve referral code: %w", err)
	}

	usersOnIP, err := t.CountUsersBySignupIP(ctx, ip)
	if err != nil {
		return nil, fmt.Errorf("count users by ip: %w", err)
	}
	usersOnDevice, err := t.CountUsersByDevice(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("count users by device: %w", err)
	}

	eligible := ReferralEligible(usersOnIP, usersOnDevice, referrer.DeviceID, deviceID)
	if !eligible {
		logger.WithContext(ctx).Info("referral bonus withheld",
			"referrer_id", referrer.ID, "users_on_ip", usersOnIP, "users_on_device", usersOnDevice,
			"same_device_as_referrer", referrer.DeviceID == deviceID)
	}
	return &ReferralDecision{Referrer: referrer, Eligible: eligible}, nil
}

// GrantReferralBonus credits the referrer and the new user once
func (t *LedgerTx) GrantReferralBonus(ctx context.Context, referrerID int64, newUser *domain.User) error {
	referrer, err := t.LockUser(ctx, referrerID)
	if err != nil {
		return fmt.Errorf("lock referrer: %w", err)
	}

	if _, err := t.Apply(ctx, referrer.ID, ReferralBonus, domain.TxReferralBonus,
		fmt.Sprintf("Referral bonus: %s joined with your code", newUser.Name)); err != nil {
		return err
	}
	if err := t.IncrementReferrals(ctx, referrer.ID); err != nil {
		return fmt.Errorf("increment referrals: %w", err)
	}

	balance, err := t.Apply(ctx, newUser.ID, SignupBonus, domain.TxSignupBonus,
		fmt.Sprintf("Signup bonus for joining with code %s", referrer.ReferralCode))
	if err != nil {
		return err
	}
	newUser.Balance = balance
	return nil
}
