package handlers

import (
	"net/http"

	"microwallet/internal/apperr"
	"microwallet/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const msgInvalidBody = "Invalid request body"

func respondOK(c *gin.Context, payload gin.H) {
	if payload == nil {
		payload = gin.H{}
	}
	payload["success"] = true
	c.JSON(http.StatusOK, payload)
}

func respondMessage(c *gin.Context, msg string) {
	respondOK(c, gin.H{"message": msg})
}

// respondError maps err to its status. Only classified messages reach the
// client; anything else is logged and reported as an internal error.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)
	if status >= http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("request failed",
			"path", c.FullPath(), "kind", kind.String(), "error", err)
	}
	c.JSON(status, gin.H{"success": false, "message": apperr.PublicMessage(err)})
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msgInvalidBody})
}

func unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
}

// money renders an amount with exactly two decimals
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
