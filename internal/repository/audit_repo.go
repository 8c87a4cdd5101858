package repository

import (
	"context"
	"encoding/json"

	"microwallet/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditRepository handles audit log database operations
type AuditRepository struct {
	db *pgxpool.Pool
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog inserts a new audit log entry
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *domain.AuditLog) error {
	detailsJSON, err := json.Marshal(log.Details)
	if err != nil || log.Details == nil {
		detailsJSON = []byte("{}")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO audit_logs (user_id, action, category, details, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, log.UserID, log.Action, log.Category, detailsJSON, log.IP, log.UserAgent)
	return err
}

// AuditLogsByUser returns audit logs for a user, newest first
func (r *AuditRepository) AuditLogsByUser(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, action, category, details, ip, user_agent, created_at
		FROM audit_logs
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func scanAuditLogs(rows pgx.Rows) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var detailsJSON []byte
		if err := rows.Scan(&log.ID, &log.UserID, &log.Action, &log.Category, &detailsJSON, &log.IP, &log.UserAgent, &log.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(detailsJSON, &log.Details); err != nil {
			log.Details = make(map[string]interface{})
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
