package handlers

import (
	"strings"
	"time"

	"microwallet/internal/domain"

	"github.com/gin-gonic/gin"
)

type referralView struct {
	Name     string    `json:"name"`
	Phone    string    `json:"phone"`
	JoinedAt time.Time `json:"joined_at"`
}

// maskPhone keeps the first four and last three characters
func maskPhone(phone string) string {
	r := []rune(phone)
	if len(r) <= 7 {
		return strings.Repeat("*", len(r))
	}
	return string(r[:4]) + strings.Repeat("*", len(r)-7) + string(r[len(r)-3:])
}

func newReferralViews(list []domain.Referral) []referralView {
	out := make([]referralView, 0, len(list))
	for _, r := range list {
		out = append(out, referralView{Name: r.Name, Phone: maskPhone(r.Phone), JoinedAt: r.JoinedAt})
	}
	return out
}

// ListReferrals lists the users who signed up with the caller's code
func (h *Handler) ListReferrals(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	sum, err := h.Referrals.Summary(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"referral_code":   sum.Code,
		"total_referrals": sum.Stats.TotalReferrals,
		"total_earned":    money(sum.Stats.TotalEarned),
		"referrals":       newReferralViews(sum.Referrals),
	})
}
