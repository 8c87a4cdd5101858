package domain

import "time"

// AuditLog represents an audit log entry for tracking security-relevant actions
type AuditLog struct {
	ID        int64                  `db:"id" json:"id"`
	UserID    int64                  `db:"user_id" json:"user_id"`
	Action    string                 `db:"action" json:"action"`
	Category  string                 `db:"category" json:"category"`
	Details   map[string]interface{} `db:"details" json:"details"`
	IP        string                 `db:"ip" json:"ip,omitempty"`
	UserAgent string                 `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt time.Time              `db:"created_at" json:"created_at"`
}

// Audit action categories
const (
	AuditCategoryAuth       = "auth"
	AuditCategoryAccount    = "account"
	AuditCategorySecurity   = "security"
	AuditCategoryWithdrawal = "withdrawal"
	AuditCategoryTransfer   = "transfer"
	AuditCategoryAdmin      = "admin"
)

// Audit actions
const (
	AuditActionSignup = "signup"
	AuditActionLogin  = "login"
	AuditActionLogout = "logout"

	AuditActionChangeName      = "change_name"
	AuditActionChangePassword  = "change_password"
	AuditActionSetPIN          = "set_withdrawal_pin"
	AuditActionChangePIN       = "change_withdrawal_pin"
	AuditActionBindingFailed   = "binding_check_failed"
	AuditActionPINMismatch     = "pin_mismatch"
	AuditActionWithdrawRequest = "withdraw_request"
	AuditActionWithdrawDone    = "withdraw_complete"
	AuditActionWithdrawReject  = "withdraw_reject"
	AuditActionTransfer        = "transfer"
)
