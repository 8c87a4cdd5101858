package service

import (
	"context"
	"testing"

	"microwallet/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := NewAdminService(f.store)

	referrer := f.signup(t, "+10000000001", "10.0.0.1", "dev-R", "")
	newbie := f.signup(t, "+10000000002", "10.0.0.2", "dev-N", referrer.ReferralCode)
	require.True(t, newbie.BonusApplied)

	f.fund(t, newbie.User.ID, "4.50")
	f.setPIN(t, newbie.User, "1234")
	_, err := f.withdrawals.Request(ctx, newbie.User.ID, WithdrawInput{
		Amount:  dec("2.00"),
		Method:  domain.MethodPayPal,
		Address: "n@example.com",
		PIN:     "1234",
	}, bindingOf(newbie.User))
	require.NoError(t, err)

	stats, err := admin.GetStats(ctx)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.TotalUsers)
	assert.EqualValues(t, 2, stats.NewUsersToday)
	assert.EqualValues(t, 1, stats.ReferredUsers)
	assert.True(t, stats.ReferralBonusPaid.Equal(dec("0.10")))
	assert.True(t, stats.SignupBonusPaid.Equal(dec("0.50")))
	assert.EqualValues(t, 1, stats.PendingWithdrawals)
	assert.True(t, stats.PendingAmount.Equal(dec("2.00")))
	assert.True(t, stats.TotalWithdrawn.IsZero())
	// 0.10 + (0.50 + 4.50 - 2.00)
	assert.True(t, stats.TotalBalance.Equal(dec("3.10")), stats.TotalBalance.String())
}
