package handlers

import (
	"time"

	"microwallet/internal/domain"
)

type userView struct {
	ID             int64     `json:"id"`
	Phone          string    `json:"phone"`
	Name           string    `json:"name"`
	ReferralCode   string    `json:"referral_code"`
	ReferredBy     string    `json:"referred_by,omitempty"`
	Balance        string    `json:"balance"`
	TotalReferrals int       `json:"total_referrals"`
	IsVerified     bool      `json:"is_verified"`
	HasPIN         bool      `json:"has_withdrawal_pin"`
	CreatedAt      time.Time `json:"created_at"`
}

func newUserView(u *domain.User) userView {
	return userView{
		ID:             u.ID,
		Phone:          u.Phone,
		Name:           u.Name,
		ReferralCode:   u.ReferralCode,
		ReferredBy:     u.ReferredBy,
		Balance:        money(u.Balance),
		TotalReferrals: u.TotalReferrals,
		IsVerified:     u.IsVerified,
		HasPIN:         u.HasWithdrawalPIN(),
		CreatedAt:      u.CreatedAt,
	}
}

type transactionView struct {
	ID          int64                  `json:"id"`
	Type        domain.TransactionType `json:"type"`
	Amount      string                 `json:"amount"`
	Description string                 `json:"description"`
	CreatedAt   time.Time              `json:"created_at"`
}

func newTransactionViews(txs []domain.Transaction) []transactionView {
	out := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, transactionView{
			ID:          t.ID,
			Type:        t.Type,
			Amount:      money(t.Amount),
			Description: t.Description,
			CreatedAt:   t.CreatedAt,
		})
	}
	return out
}

type withdrawalView struct {
	ID         int64                   `json:"id"`
	UserID     int64                   `json:"user_id"`
	Amount     string                  `json:"amount"`
	Method     domain.WithdrawalMethod `json:"method"`
	Address    string                  `json:"address"`
	Status     domain.WithdrawalStatus `json:"status"`
	Note       string                  `json:"note,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
	ResolvedAt *time.Time              `json:"resolved_at,omitempty"`
}

func newWithdrawalView(w *domain.WithdrawalRequest) withdrawalView {
	return withdrawalView{
		ID:         w.ID,
		UserID:     w.UserID,
		Amount:     money(w.Amount),
		Method:     w.Method,
		Address:    w.Address,
		Status:     w.Status,
		Note:       w.Note,
		CreatedAt:  w.CreatedAt,
		ResolvedAt: w.ResolvedAt,
	}
}

func newWithdrawalViews(ws []domain.WithdrawalRequest) []withdrawalView {
	out := make([]withdrawalView, 0, len(ws))
	for i := range ws {
		out = append(out, newWithdrawalView(&ws[i]))
	}
	return out
}

type statsView struct {
	TotalUsers         int64  `json:"total_users"`
	NewUsersToday      int64  `json:"new_users_today"`
	ReferredUsers      int64  `json:"referred_users"`
	TotalBalance       string `json:"total_balance"`
	ReferralBonusPaid  string `json:"referral_bonus_paid"`
	SignupBonusPaid    string `json:"signup_bonus_paid"`
	PendingWithdrawals int64  `json:"pending_withdrawals"`
	PendingAmount      string `json:"pending_amount"`
	TotalWithdrawn     string `json:"total_withdrawn"`
}

func newStatsView(s *domain.PlatformStats) statsView {
	return statsView{
		TotalUsers:         s.TotalUsers,
		NewUsersToday:      s.NewUsersToday,
		ReferredUsers:      s.ReferredUsers,
		TotalBalance:       money(s.TotalBalance),
		ReferralBonusPaid:  money(s.ReferralBonusPaid),
		SignupBonusPaid:    money(s.SignupBonusPaid),
		PendingWithdrawals: s.PendingWithdrawals,
		PendingAmount:      money(s.PendingAmount),
		TotalWithdrawn:     money(s.TotalWithdrawn),
	}
}
