package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(pgx.ErrNoRows), ErrNotFound)
	assert.ErrorIs(t, translate(fmt.Errorf("scan: %w", pgx.ErrNoRows)), ErrNotFound)
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: "23505", ConstraintName: "users_phone_key"}), ErrDuplicate)
	assert.ErrorIs(t, translate(&pgconn.PgError{Code: "23514", ConstraintName: "users_balance_check"}), ErrNegativeBalance)

	other := &pgconn.PgError{Code: "23514", ConstraintName: "withdrawal_requests_amount_check"}
	assert.Same(t, error(other), translate(other))

	canceled := &pgconn.PgError{Code: "57014", Message: "canceling statement due to statement timeout"}
	assert.ErrorIs(t, translate(canceled), ErrStatementTimeout)
	assert.ErrorIs(t, translate(canceled), context.DeadlineExceeded)
	assert.ErrorIs(t, translate(canceled), canceled)

	raw := errors.New("conn reset")
	assert.Equal(t, raw, translate(raw))
}

func TestGenerateReferralCode(t *testing.T) {
	code := GenerateReferralCode()
	assert.Len(t, code, 8)
	assert.Regexp(t, `^[0-9A-F]{8}$`, code)
	assert.NotEqual(t, code, GenerateReferralCode())
}
