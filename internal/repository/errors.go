package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrStaleUpdate     = errors.New("record changed concurrently")
	ErrNegativeBalance = errors.New("balance would become negative")

	// ErrStatementTimeout matches context.DeadlineExceeded so callers classify
	// it like any other deadline
	ErrStatementTimeout = fmt.Errorf("statement timeout: %w", context.DeadlineExceeded)
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	pgQueryCanceled   = "57014"
)

// translate maps driver errors onto the package sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgCheckViolation:
			if pgErr.ConstraintName == "users_balance_check" {
				return ErrNegativeBalance
			}
		case pgQueryCanceled:
			return fmt.Errorf("%w: %w", ErrStatementTimeout, err)
		}
	}
	return err
}
