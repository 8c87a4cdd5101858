package handlers

import (
	"microwallet/internal/service"

	"github.com/gin-gonic/gin"
)

type SignupRequest struct {
	Phone    string `json:"phone" binding:"max=32"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Referral string `json:"referral" binding:"max=32"`
	DeviceID string `json:"device_id" binding:"max=128"`
}

type LoginRequest struct {
	Phone    string `json:"phone" binding:"max=32"`
	Password string `json:"password"`
}

func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	res, err := h.Accounts.Signup(c.Request.Context(), service.SignupInput{
		Phone:    req.Phone,
		Name:     req.Name,
		Password: req.Password,
		Referral: req.Referral,
		DeviceID: req.DeviceID,
		Request:  bindingOf(c, req.DeviceID),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{
		"token":         res.Token,
		"referral_code": res.ReferralCode,
		"bonus_applied": res.BonusApplied,
		"user":          newUserView(res.User),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	token, user, err := h.Accounts.Login(c.Request.Context(), req.Phone, req.Password, bindingOf(c, ""))
	if err != nil {
		respondError(c, err)
		return
	}

	respondOK(c, gin.H{"token": token, "user": newUserView(user)})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.Accounts.Logout(c.Request.Context(), getClaims(c)); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Logged out")
}
