package handlers

import (
	"strconv"

	"microwallet/internal/apperr"

	"github.com/gin-gonic/gin"
)

type ResolveWithdrawalRequest struct {
	Note   string `json:"note" binding:"max=500"`
	Reason string `json:"reason" binding:"max=500"`
}

func (h *Handler) PendingWithdrawals(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	list, err := h.Withdrawals.ListPending(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"withdrawals": newWithdrawalViews(list)})
}

func (h *Handler) CompleteWithdrawal(c *gin.Context) {
	id, req, ok := resolveParams(c)
	if !ok {
		return
	}
	w, err := h.Withdrawals.Complete(c.Request.Context(), id, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"withdrawal": newWithdrawalView(w)})
}

func (h *Handler) RejectWithdrawal(c *gin.Context) {
	id, req, ok := resolveParams(c)
	if !ok {
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = req.Note
	}
	w, err := h.Withdrawals.Reject(c.Request.Context(), id, reason)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"withdrawal": newWithdrawalView(w)})
}

// Stats returns platform totals
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.Admin.GetStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"stats": newStatsView(stats)})
}

// UserAudit returns the newest audit entries for a user
func (h *Handler) UserAudit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.NotFound("User not found"))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	logs, err := h.Audit.ForUser(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"audit_logs": logs})
}

// resolveParams reads the withdrawal id and the optional body. An empty
// body is allowed.
func resolveParams(c *gin.Context) (int64, ResolveWithdrawalRequest, bool) {
	var req ResolveWithdrawalRequest
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, apperr.NotFound("Withdrawal not found"))
		return 0, req, false
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return 0, req, false
		}
	}
	return id, req, true
}
