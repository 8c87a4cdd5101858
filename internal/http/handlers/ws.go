package handlers

import (
	"net/http"

	"microwallet/internal/logger"
	"microwallet/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WS upgrades an authenticated session for balance notifications. Browsers
// cannot set headers on websocket requests, so the token comes in the query.
func (h *Handler) WS(hub *ws.Hub, allowedOrigin string) gin.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" {
				return true
			}
			return r.Header.Get("Origin") == allowedOrigin
		},
	}

	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			unauthorized(c)
			return
		}

		claims, err := h.Tokens.Verify(token)
		if err != nil {
			unauthorized(c)
			return
		}
		if h.Revocations != nil {
			if revoked, err := h.Revocations.IsRevoked(c.Request.Context(), claims.ID); err == nil && revoked {
				unauthorized(c)
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.WithContext(c.Request.Context()).Warn("ws upgrade failed", "user_id", claims.UserID, "error", err)
			return
		}

		go ws.NewClient(claims.UserID, conn, hub).Run()
	}
}
