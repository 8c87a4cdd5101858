package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"microwallet/internal/logger"
	"microwallet/internal/metrics"
	"microwallet/internal/service"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by JWT
const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
)

type TokenVerifier interface {
	Verify(token string) (*service.Claims, error)
}

// RevocationChecker reports tokens revoked by logout
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWT authenticates the bearer token. Every failure answers the same 401;
// the reason only goes to logs and metrics. revoked may be nil.
func JWT(tokens TokenVerifier, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearer(c.GetHeader("Authorization"))
		if !ok {
			reject(c, "missing")
			return
		}

		claims, err := tokens.Verify(raw)
		if err != nil {
			if errors.Is(err, service.ErrTokenExpired) {
				reject(c, "expired")
			} else {
				reject(c, "invalid")
			}
			return
		}

		if revoked != nil && claims.ID != "" {
			isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				logger.WithContext(c.Request.Context()).Warn("token revocation lookup failed", "error", err)
			} else if isRevoked {
				reject(c, "revoked")
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextClaims, claims)
		c.Next()
	}
}

func bearer(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func reject(c *gin.Context, reason string) {
	metrics.TokenFailures.WithLabelValues(reason).Inc()
	logger.WithContext(c.Request.Context()).Info("token rejected", "reason", reason, "path", c.FullPath())
	abortUnauthorized(c)
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
}
