package repository

import (
	"context"

	"microwallet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const withdrawalColumns = `id, user_id, amount, method, address, status, note, created_at, resolved_at`

type WithdrawalRepository struct {
	db *pgxpool.Pool
}

func NewWithdrawalRepository(db *pgxpool.Pool) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// RecentWithdrawals returns a user's requests, newest first
func (r *WithdrawalRepository) RecentWithdrawals(ctx context.Context, userID int64, limit int) ([]domain.WithdrawalRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

// PendingWithdrawals returns requests awaiting fulfilment, oldest first
func (r *WithdrawalRepository) PendingWithdrawals(ctx context.Context, limit int) ([]domain.WithdrawalRequest, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+withdrawalColumns+`
		FROM withdrawal_requests
		WHERE status = 'pending'
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWithdrawals(rows)
}

func (r *WithdrawalRepository) HasPendingWithTx(ctx context.Context, tx pgx.Tx, userID int64) (bool, error) {
	var exists bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM withdrawal_requests WHERE user_id = $1 AND status = 'pending')
	`, userID).Scan(&exists)
	return exists, err
}

func (r *WithdrawalRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, w *domain.WithdrawalRequest) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO withdrawal_requests (user_id, amount, method, address, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, w.UserID, w.Amount, w.Method, w.Address, w.Status).Scan(&w.ID, &w.CreatedAt)
	return translate(err)
}

func (r *WithdrawalRepository) GetByIDForUpdateWithTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.WithdrawalRequest, error) {
	row := tx.QueryRow(ctx, `SELECT `+withdrawalColumns+` FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id)
	return scanWithdrawal(row)
}

// ResolveWithTx moves a pending request to a terminal status
func (r *WithdrawalRepository) ResolveWithTx(ctx context.Context, tx pgx.Tx, id int64, status domain.WithdrawalStatus, note string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE withdrawal_requests SET status = $2, note = $3, resolved_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, status, note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleUpdate
	}
	return nil
}

func scanWithdrawal(row pgx.Row) (*domain.WithdrawalRequest, error) {
	var w domain.WithdrawalRequest
	if err := row.Scan(
		&w.ID, &w.UserID, &w.Amount, &w.Method, &w.Address, &w.Status, &w.Note, &w.CreatedAt, &w.ResolvedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &w, nil
}

func scanWithdrawals(rows pgx.Rows) ([]domain.WithdrawalRequest, error) {
	withdrawals := []domain.WithdrawalRequest{}

	for rows.Next() {
		var w domain.WithdrawalRequest
		if err := rows.Scan(
			&w.ID, &w.UserID, &w.Amount, &w.Method, &w.Address, &w.Status, &w.Note, &w.CreatedAt, &w.ResolvedAt,
		); err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, w)
	}

	return withdrawals, rows.Err()
}
