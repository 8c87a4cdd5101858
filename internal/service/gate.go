package service

import (
	"context"

	"microwallet/internal/apperr"
	"microwallet/internal/domain"
	"microwallet/internal/logger"
	"microwallet/internal/metrics"
)

var (
	errBindingFailed = apperr.Security("Security check failed: unrecognized device or network")
	errPINNotSet     = apperr.Validation("Set a withdrawal PIN first")
	errPINMismatch   = apperr.Security("Incorrect PIN")
)

// gate applies the checks shared by every sensitive account action
type gate struct {
	guard  BindingGuard
	hasher *Hasher
	audit  *AuditService
}

func (g gate) requireBinding(ctx context.Context, user *domain.User, req BindingRequest, action string) error {
	if g.guard.IsBound(user, req) {
		return nil
	}
	metrics.SecurityFailures.WithLabelValues(action, "binding").Inc()
	logger.WithContext(ctx).Warn("binding check failed", "user_id", user.ID, "action", action, "ip", req.SourceIP)
	g.audit.LogWithRequest(ctx, user.ID, domain.AuditActionBindingFailed, domain.AuditCategorySecurity, req,
		map[string]interface{}{"action": action, "device_id": req.DeviceID})
	return errBindingFailed
}

func (g gate) requirePIN(ctx context.Context, user *domain.User, pin string, req BindingRequest, action string) error {
	if !user.HasWithdrawalPIN() {
		return errPINNotSet
	}
	if g.hasher.Matches(user.WithdrawalPINHash, pin) {
		return nil
	}
	metrics.SecurityFailures.WithLabelValues(action, "pin").Inc()
	g.audit.LogWithRequest(ctx, user.ID, domain.AuditActionPINMismatch, domain.AuditCategorySecurity, req,
		map[string]interface{}{"action": action})
	return errPINMismatch
}
