package handlers

import (
	"github.com/gin-gonic/gin"
)

type ChangeNameRequest struct {
	Name     string `json:"name"`
	DeviceID string `json:"device_id"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
	DeviceID    string `json:"device_id"`
}

type SetPINRequest struct {
	PIN      string `json:"pin"`
	DeviceID string `json:"device_id"`
}

type ChangePINRequest struct {
	OldPIN   string `json:"old_pin"`
	NewPIN   string `json:"new_pin"`
	DeviceID string `json:"device_id"`
}

func (h *Handler) ChangeName(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req ChangeNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	if err := h.Accounts.ChangeName(c.Request.Context(), userID, req.Name, bindingOf(c, req.DeviceID)); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Name updated")
}

func (h *Handler) ChangePassword(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	err := h.Accounts.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword, bindingOf(c, req.DeviceID))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Password updated")
}

func (h *Handler) SetWithdrawalPIN(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req SetPINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	if err := h.Accounts.SetWithdrawalPIN(c.Request.Context(), userID, req.PIN, bindingOf(c, req.DeviceID)); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Withdrawal PIN set")
}

func (h *Handler) ChangeWithdrawalPIN(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req ChangePINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	err := h.Accounts.ChangeWithdrawalPIN(c.Request.Context(), userID, req.OldPIN, req.NewPIN, bindingOf(c, req.DeviceID))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Withdrawal PIN updated")
}
