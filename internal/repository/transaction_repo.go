package repository

import (
	"context"

	"microwallet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TransactionRepository struct {
	db *pgxpool.Pool
}

func NewTransactionRepository(db *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// RecentTransactions returns the newest ledger rows for a user
func (r *TransactionRepository) RecentTransactions(ctx context.Context, userID int64, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, type, amount, description, created_at
		 FROM transactions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Transaction, 0, limit)
	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// CreateWithTx appends a ledger row using an existing database transaction
func (r *TransactionRepository) CreateWithTx(ctx context.Context, dbTx pgx.Tx, t *domain.Transaction) error {
	return dbTx.QueryRow(ctx,
		`INSERT INTO transactions (user_id, type, amount, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		t.UserID, t.Type, t.Amount, t.Description,
	).Scan(&t.ID, &t.CreatedAt)
}
