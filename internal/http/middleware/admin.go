package middleware

import (
	"crypto/subtle"
	"net/http"

	"microwallet/internal/logger"

	"github.com/gin-gonic/gin"
)

// AdminToken guards operator endpoints with a static bearer token. With no
// token configured the endpoints do not exist.
func AdminToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
			return
		}
		got, ok := bearer(c.GetHeader("Authorization"))
		if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			logger.WithContext(c.Request.Context()).Warn("admin token rejected", "ip", c.ClientIP(), "path", c.FullPath())
			abortUnauthorized(c)
			return
		}
		c.Next()
	}
}
