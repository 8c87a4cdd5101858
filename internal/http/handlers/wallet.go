package handlers

import (
	"microwallet/internal/domain"
	"microwallet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Amounts accept a JSON number or a decimal string
type WithdrawRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Method   string          `json:"method" binding:"max=32"`
	Address  string          `json:"address" binding:"max=256"`
	PIN      string          `json:"pin"`
	DeviceID string          `json:"device_id"`
}

type TransferRequest struct {
	ToPhone  string          `json:"to_phone" binding:"max=32"`
	Amount   decimal.Decimal `json:"amount"`
	PIN      string          `json:"pin"`
	DeviceID string          `json:"device_id"`
}

func (h *Handler) Withdraw(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	res, err := h.Withdrawals.Request(c.Request.Context(), userID, service.WithdrawInput{
		Amount:  req.Amount,
		Method:  domain.WithdrawalMethod(req.Method),
		Address: req.Address,
		PIN:     req.PIN,
	}, bindingOf(c, req.DeviceID))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"message":     "Withdrawal request submitted",
		"new_balance": money(res.NewBalance),
		"withdrawal":  newWithdrawalView(res.Withdrawal),
	})
}

func (h *Handler) ListWithdrawals(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	list, err := h.Withdrawals.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"withdrawals": newWithdrawalViews(list)})
}

func (h *Handler) Transfer(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	balance, err := h.Transfers.Transfer(c.Request.Context(), userID, service.TransferInput{
		ToPhone: req.ToPhone,
		Amount:  req.Amount,
		PIN:     req.PIN,
	}, bindingOf(c, req.DeviceID))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"message": "Transfer successful", "new_balance": money(balance)})
}
