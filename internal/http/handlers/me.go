package handlers

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	user, err := h.Accounts.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"user": newUserView(user)})
}

func (h *Handler) Balance(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	balance, err := h.Accounts.Balance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"balance": money(balance)})
}

// Transactions lists the newest ledger entries for the caller
func (h *Handler) Transactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	txs, err := h.Accounts.Transactions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"transactions": newTransactionViews(txs)})
}
