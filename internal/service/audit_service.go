package service

import (
	"context"

	"microwallet/internal/domain"
	"microwallet/internal/logger"
)

// AuditService handles audit logging. Persistence failures are logged, never returned.
type AuditService struct {
	repo AuditStore
}

// NewAuditService creates a new audit service
func NewAuditService(repo AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, userID int64, action, category string, details map[string]interface{}) {
	s.LogWithRequest(ctx, userID, action, category, BindingRequest{}, details)
}

// LogWithRequest creates an audit log with request info (IP, User-Agent)
func (s *AuditService) LogWithRequest(ctx context.Context, userID int64, action, category string, req BindingRequest, details map[string]interface{}) {
	if s == nil || s.repo == nil {
		return
	}
	log := &domain.AuditLog{
		UserID:    userID,
		Action:    action,
		Category:  category,
		Details:   details,
		IP:        req.SourceIP,
		UserAgent: req.UserAgent,
	}

	if err := s.repo.CreateAuditLog(ctx, log); err != nil {
		logger.WithContext(ctx).Error("failed to create audit log", "error", err, "action", action, "user_id", userID)
	}
}

// ForUser returns the newest audit entries for a user
func (s *AuditService) ForUser(ctx context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.repo.AuditLogsByUser(ctx, userID, limit)
}
