package service

import (
	"context"
	"testing"
	"time"

	"microwallet/internal/apperr"
	"microwallet/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRevoker struct {
	jti   string
	until time.Time
}

func (r *fakeRevoker) Revoke(_ context.Context, jti string, until time.Time) error {
	r.jti, r.until = jti, until
	return nil
}

func TestSignupValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.accounts.Signup(ctx, SignupInput{Phone: "+1", Name: "Ada", Password: "secretpw"})
	assertAppErr(t, err, apperr.KindValidation, "Phone, name, password and device_id are required")

	_, err = f.accounts.Signup(ctx, SignupInput{Phone: "+1", Name: "Ada", Password: "short", DeviceID: "d"})
	assertAppErr(t, err, apperr.KindValidation, "Password must be at least 6 characters")

	f.signup(t, "+10000000001", "10.0.0.1", "dev-A", "")
	_, err = f.accounts.Signup(ctx, SignupInput{Phone: "+10000000001", Name: "Bob", Password: "secretpw", DeviceID: "dev-B"})
	assertAppErr(t, err, apperr.KindConflict, "User already exists")
}

func TestSignupIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t)
	res := f.signup(t, "+10000000001", "10.0.0.1", "dev-A", "")

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.True(t, res.User.IsVerified)
}

// Mirrors the documented end-to-end example for a fresh account.
func TestAccountExampleSequence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.accounts.Signup(ctx, SignupInput{
		Phone: "+10000000001", Name: "Ada", Password: "secretpw", DeviceID: "dev-A",
		Request: BindingRequest{SourceIP: "10.0.0.1", DeviceID: "dev-A"},
	})
	require.NoError(t, err)
	assert.True(t, res.User.Balance.IsZero())
	assert.False(t, res.BonusApplied)

	_, _, err = f.accounts.Login(ctx, "+10000000001", "wrongpass", BindingRequest{})
	assertAppErr(t, err, apperr.KindValidation, "Invalid password")

	req := BindingRequest{SourceIP: "10.0.0.1", DeviceID: "dev-A"}
	err = f.accounts.SetWithdrawalPIN(ctx, res.User.ID, "123", req)
	assertAppErr(t, err, apperr.KindValidation, "PIN must be 4 to 6 digits")

	require.NoError(t, f.accounts.SetWithdrawalPIN(ctx, res.User.ID, "1234", req))

	_, err = f.withdrawals.Request(ctx, res.User.ID, WithdrawInput{
		Amount: dec("0.50"), Method: domain.MethodPayPal, Address: "a@b.com", PIN: "1234",
	}, req)
	assertAppErr(t, err, apperr.KindValidation, "Minimum withdrawal is $1.00")
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.signup(t, "+10000000001", "10.0.0.1", "dev-A", "")

	_, _, err := f.accounts.Login(ctx, "", "x", BindingRequest{})
	assertAppErr(t, err, apperr.KindValidation, "Phone and password required")

	_, _, err = f.accounts.Login(ctx, "+19999999999", "secret123", BindingRequest{})
	assertAppErr(t, err, apperr.KindNotFound, "User not found")

	token, user, err := f.accounts.Login(ctx, "+10000000001", "secret123", BindingRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "+10000000001", user.Phone)
}

func TestLogoutRevokesTokenID(t *testing.T) {
	f := newFixture(t)
	revoker := &fakeRevoker{}
	f.accounts.revoker = revoker
	res := f.signup(t, "+10000000001", "10.0.0.1", "dev-A", "")

	claims, err := f.tokens.Verify(res.Token)
	require.NoError(t, err)
	require.NoError(t, f.accounts.Logout(context.Background(), claims))

	assert.Equal(t, claims.ID, revoker.jti)
	assert.Equal(t, claims.ExpiresAt.Time, revoker.until)
}

func TestChangeName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.signup(t, "+10000000001", "10.0.0.1", "dev-A", "").User

	err := f.accounts.ChangeName(ctx, u.ID, "Eve", BindingRequest{SourceIP: "1.1.1.1", DeviceID: "dev-X"})
	assertAppErr(t, err, apperr.KindSecurity, "Security check failed: unrecognized device or network")

	err = f.accounts.ChangeName(ctx, u.ID, "   ", bindingOf(u))
	assertAppErr(t, err, apperr.KindValidation, "Name is required")

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'a'
	}
	err = f.accounts.ChangeName(ctx, u.ID, string(long), bindingOf(u))
	assertAppErr(t, err, apperr.KindValidation, "Name too long (max 50 chars)")

	require.NoError(t, f.accounts.ChangeName(ctx, u.ID, "  Grace ", BindingRequest{SourceIP: "1.1.1.1", DeviceID: "dev-A"}))
	got, err := f.accounts.Profile(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.Name)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.signup(t, "+10000000001", "10.0.0.1", "dev-A", "").User
	req := bindingOf(u)

	cases := []struct {
		oldPW, newPW string
		msg          string
	}{
		{"", "newsecret", "Old and new password required"},
		{"secret123", "short", "New password must be at least 6 characters"},
		{"secret123", "secret123", "New password must be different"},
		{"wrongpass", "newsecret", "Old password is incorrect"},
	}
	for _, tc := range cases {
		err := f.accounts.ChangePassword(ctx, u.ID, tc.oldPW, tc.newPW, req)
		assertAppErr(t, err, apperr.KindValidation, tc.msg)
	}

	require.NoError(t, f.accounts.ChangePassword(ctx, u.ID, "secret123", "newsecret", req))
	_, _, err := f.accounts.Login(ctx, u.Phone, "newsecret", req)
	assert.NoError(t, err)
}

func TestWithdrawalPINLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.signup(t, "+10000000001", "10.0.0.1", "dev-A", "").User
	req := bindingOf(u)

	err := f.accounts.ChangeWithdrawalPIN(ctx, u.ID, "1234", "5678", req)
	assertAppErr(t, err, apperr.KindValidation, "Set a withdrawal PIN first")

	require.NoError(t, f.accounts.SetWithdrawalPIN(ctx, u.ID, "1234", req))

	stored, err := f.store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "1234", stored.WithdrawalPINHash)
	assert.True(t, f.hasher.Matches(stored.WithdrawalPINHash, "1234"))

	err = f.accounts.SetWithdrawalPIN(ctx, u.ID, "9999", req)
	assertAppErr(t, err, apperr.KindConflict, "Withdrawal PIN already set")

	err = f.accounts.ChangeWithdrawalPIN(ctx, u.ID, "0000", "5678", req)
	assertAppErr(t, err, apperr.KindSecurity, "Incorrect PIN")

	err = f.accounts.ChangeWithdrawalPIN(ctx, u.ID, "1234", "12", req)
	assertAppErr(t, err, apperr.KindValidation, "PIN must be 4 to 6 digits")

	err = f.accounts.ChangeWithdrawalPIN(ctx, u.ID, "1234", "1234", req)
	assertAppErr(t, err, apperr.KindValidation, "New PIN must be different")

	require.NoError(t, f.accounts.ChangeWithdrawalPIN(ctx, u.ID, "1234", "567890", req))
	stored, err = f.store.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, f.hasher.Matches(stored.WithdrawalPINHash, "567890"))
}

func TestAuditTrailRecordsSecurityFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.signup(t, "+10000000001", "10.0.0.1", "dev-A", "").User

	_ = f.accounts.ChangeName(ctx, u.ID, "Eve", BindingRequest{SourceIP: "6.6.6.6", DeviceID: "dev-X"})

	logs, err := NewAuditService(f.store).ForUser(ctx, u.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	assert.Equal(t, domain.AuditActionBindingFailed, logs[0].Action)
	assert.Equal(t, "6.6.6.6", logs[0].IP)
}
