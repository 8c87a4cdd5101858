package service

import (
	"context"
	"errors"
	"testing"

	"microwallet/internal/apperr"
	"microwallet/internal/domain"
	"microwallet/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAppErr(t *testing.T, err error, kind apperr.Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	var ae *apperr.Error
	require.True(t, errors.As(err, &ae), "expected *apperr.Error, got %T: %v", err, err)
	assert.Equal(t, kind, ae.Kind)
	assert.Equal(t, msg, ae.Message)
}

func TestReferralEligible(t *testing.T) {
	cases := []struct {
		name          string
		usersOnIP     int
		usersOnDevice int
		referrerDev   string
		newDev        string
		want          bool
	}{
		{"fresh ip and device", 0, 0, "dev-R", "dev-N", true},
		{"two users on ip", 2, 0, "dev-R", "dev-N", true},
		{"ip throttled at three", 3, 0, "dev-R", "dev-N", false},
		{"device reused", 0, 1, "dev-R", "dev-N", false},
		{"same device as referrer", 0, 0, "dev-R", "dev-R", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReferralEligible(tc.usersOnIP, tc.usersOnDevice, tc.referrerDev, tc.newDev))
		})
	}
}

func TestSignupWithoutReferral(t *testing.T) {
	f := newFixture(t)
	res := f.signup(t, "+10000000001", "10.0.0.1", "dev-A", "")

	assert.False(t, res.BonusApplied)
	assert.True(t, res.User.Balance.IsZero())
	assert.Len(t, res.ReferralCode, 8)
	assert.Empty(t, f.transactions(t, res.User.ID))
	assert.Empty(t, f.notifier.all())
}

func TestSignupWithEligibleReferral(t *testing.T) {
	f := newFixture(t)
	referrer := f.signup(t, "+10000000001", "10.0.0.1", "dev-R", "")
	newbie := f.signup(t, "+10000000002", "10.0.0.2", "dev-N", referrer.ReferralCode)

	assert.True(t, newbie.BonusApplied)
	assert.True(t, newbie.User.Balance.Equal(dec("0.50")))
	assert.Equal(t, referrer.ReferralCode, newbie.User.ReferredBy)
	assert.True(t, f.balance(t, newbie.User.ID).Equal(dec("0.50")))
	assert.True(t, f.balance(t, referrer.User.ID).Equal(dec("0.10")))

	ref, err := f.accounts.Profile(context.Background(), referrer.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, ref.TotalReferrals)

	refTxs := f.transactions(t, referrer.User.ID)
	require.Len(t, refTxs, 1)
	assert.Equal(t, domain.TxReferralBonus, refTxs[0].Type)
	assert.True(t, refTxs[0].Amount.Equal(dec("0.10")))

	newTxs := f.transactions(t, newbie.User.ID)
	require.Len(t, newTxs, 1)
	assert.Equal(t, domain.TxSignupBonus, newTxs[0].Type)

	events := f.notifier.all()
	require.Len(t, events, 2)
	assert.Equal(t, referrer.User.ID, events[0].UserID)
	assert.Equal(t, newbie.User.ID, events[1].UserID)
}

func TestSignupSameDeviceAsReferrerGetsNoBonus(t *testing.T) {
	f := newFixture(t)
	referrer := f.signup(t, "+10000000001", "10.0.0.1", "dev-R", "")

	// the device is also reused here; the referrer equality alone must block it
	newbie := f.signup(t, "+10000000002", "10.9.9.9", "dev-R", referrer.ReferralCode)

	assert.False(t, newbie.BonusApplied)
	assert.True(t, f.balance(t, newbie.User.ID).IsZero())
	assert.True(t, f.balance(t, referrer.User.ID).IsZero())
}

func TestSignupIPThrottle(t *testing.T) {
	f := newFixture(t)
	referrer := f.signup(t, "+10000000001", "10.0.0.1", "dev-R", "")
	f.signup(t, "+10000000002", "10.0.0.50", "dev-1", "")
	f.signup(t, "+10000000003", "10.0.0.50", "dev-2", "")

	third := f.signup(t, "+10000000004", "10.0.0.50", "dev-3", referrer.ReferralCode)
	assert.True(t, third.BonusApplied, "two existing users on the ip do not throttle")

	fourth := f.signup(t, "+10000000005", "10.0.0.50", "dev-4", referrer.ReferralCode)
	assert.False(t, fourth.BonusApplied)
	assert.True(t, fourth.User.Balance.IsZero())
	assert.True(t, f.balance(t, referrer.User.ID).Equal(dec("0.10")))
}

func TestSignupDeviceReuseBlocksBonus(t *testing.T) {
	f := newFixture(t)
	referrer := f.signup(t, "+10000000001", "10.0.0.1", "dev-R", "")
	f.signup(t, "+10000000002", "10.0.0.2", "dev-shared", "")

	res := f.signup(t, "+10000000003", "10.0.0.3", "dev-shared", referrer.ReferralCode)
	assert.False(t, res.BonusApplied)
}

func TestSignupInvalidReferralCreatesNothing(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.Signup(context.Background(), SignupInput{
		Phone: "+10000000001", Name: "Ada", Password: "secretpw", DeviceID: "dev-A", Referral: "NOPE0000",
	})
	assertAppErr(t, err, apperr.KindValidation, "Invalid referral code")

	_, err = f.store.GetByPhone(context.Background(), "+10000000001")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLedgerRollsBackAndPublishesNothingOnFailure(t *testing.T) {
	f := newFixture(t)
	u := f.signup(t, "+10000000001", "10.0.0.1", "dev-A", "").User
	f.fund(t, u.ID, "1.00")
	before := len(f.notifier.all())

	err := f.ledger.Atomically(context.Background(), func(tx *LedgerTx) error {
		if _, err := tx.Apply(context.Background(), u.ID, dec("0.40"), domain.TxTransfer, "credit"); err != nil {
			return err
		}
		_, err := tx.Apply(context.Background(), u.ID, dec("-5.00"), domain.TxTransfer, "overdraw")
		return err
	})
	require.ErrorIs(t, err, repository.ErrNegativeBalance)

	assert.True(t, f.balance(t, u.ID).Equal(dec("1.00")))
	assert.Len(t, f.transactions(t, u.ID), 1)
	assert.Len(t, f.notifier.all(), before)
}
