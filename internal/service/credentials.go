package service

import (
	"errors"
	"regexp"

	"microwallet/internal/apperr"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

var pinPattern = regexp.MustCompile(`^\d{4,6}$`)

// Hasher hashes passwords and withdrawal PINs with bcrypt
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Matches reports whether secret matches hash. An empty hash never matches.
func (h *Hasher) Matches(hash, secret string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

func validatePIN(pin string) error {
	if !pinPattern.MatchString(pin) {
		return apperr.Validation("PIN must be 4 to 6 digits")
	}
	return nil
}

func validatePassword(password, msg string) error {
	if len(password) < minPasswordLength {
		return apperr.Validation(msg)
	}
	return nil
}

// validateAmount checks a client supplied money amount
func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperr.Validation("Amount must be positive")
	}
	if !amount.Equal(amount.Truncate(2)) {
		return apperr.Validation("Amount must have at most 2 decimal places")
	}
	return nil
}

func hashFailure(err error) error {
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return apperr.Validation("Password is too long")
	}
	return err
}
