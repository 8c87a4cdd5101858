package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"microwallet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const userColumns = `id, phone, name, password_hash, referral_code, referred_by, balance, total_referrals,
	signup_ip, device_id, withdrawal_pin_hash, is_verified, created_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GenerateReferralCode returns a random 8 character upper-case code
func GenerateReferralCode() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return strings.ToUpper(hex.EncodeToString(b))
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

func (r *UserRepository) UpdateName(ctx context.Context, id int64, name string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET name = $2 WHERE id = $1`, id, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetWithdrawalPIN replaces the PIN hash only if it still equals previous,
// so two concurrent PIN changes cannot both succeed.
func (r *UserRepository) SetWithdrawalPIN(ctx context.Context, id int64, previous, hash string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET withdrawal_pin_hash = $3 WHERE id = $1 AND withdrawal_pin_hash = $2`,
		id, previous, hash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleUpdate
	}
	return nil
}

func (r *UserRepository) GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.User, error) {
	row := tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByPhoneWithTx(ctx context.Context, tx pgx.Tx, phone string) (*domain.User, error) {
	row := tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

func (r *UserRepository) GetByReferralCodeWithTx(ctx context.Context, tx pgx.Tx, code string) (*domain.User, error) {
	row := tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code)
	return scanUser(row)
}

func (r *UserRepository) CountBySignupIPWithTx(ctx context.Context, tx pgx.Tx, ip string) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE signup_ip = $1`, ip).Scan(&n)
	return n, err
}

func (r *UserRepository) CountByDeviceWithTx(ctx context.Context, tx pgx.Tx, deviceID string) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE device_id = $1`, deviceID).Scan(&n)
	return n, err
}

func (r *UserRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, u *domain.User) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO users (phone, name, password_hash, referral_code, referred_by, signup_ip, device_id, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, balance, total_referrals, created_at
	`, u.Phone, u.Name, u.PasswordHash, u.ReferralCode, u.ReferredBy, u.SignupIP, u.DeviceID, u.IsVerified,
	).Scan(&u.ID, &u.Balance, &u.TotalReferrals, &u.CreatedAt)
	return translate(err)
}

func (r *UserRepository) AddBalanceWithTx(ctx context.Context, tx pgx.Tx, id int64, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.QueryRow(ctx,
		`UPDATE users SET balance = balance + $2 WHERE id = $1 RETURNING balance`,
		id, delta,
	).Scan(&balance)
	if err != nil {
		return decimal.Zero, translate(err)
	}
	return balance, nil
}

func (r *UserRepository) IncrementReferralsWithTx(ctx context.Context, tx pgx.Tx, id int64) error {
	tag, err := tx.Exec(ctx, `UPDATE users SET total_referrals = total_referrals + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.ID, &u.Phone, &u.Name, &u.PasswordHash, &u.ReferralCode, &u.ReferredBy, &u.Balance, &u.TotalReferrals,
		&u.SignupIP, &u.DeviceID, &u.WithdrawalPINHash, &u.IsVerified, &u.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &u, nil
}
