package handlers

import (
	"microwallet/internal/chat"
	"microwallet/internal/http/middleware"
	"microwallet/internal/service"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Accounts    *service.AccountService
	Withdrawals *service.WithdrawalService
	Transfers   *service.TransferService
	Referrals   *service.ReferralService
	Chat        *chat.Service
	Audit       *service.AuditService
	Admin       *service.AdminService
	Tokens      *service.TokenService
	Revocations middleware.RevocationChecker
}

// getUserID returns the user id placed in the Gin context by the JWT middleware
func getUserID(c *gin.Context) (int64, bool) {
	uidVal, ok := c.Get(middleware.ContextUserID)
	if !ok {
		return 0, false
	}
	uid, ok := uidVal.(int64)
	return uid, ok
}

func getClaims(c *gin.Context) *service.Claims {
	v, ok := c.Get(middleware.ContextClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.Claims)
	return claims
}

// bindingOf describes where a request comes from for the binding guard
func bindingOf(c *gin.Context, deviceID string) service.BindingRequest {
	return service.BindingRequest{
		SourceIP:  c.ClientIP(),
		DeviceID:  deviceID,
		UserAgent: c.Request.UserAgent(),
	}
}
