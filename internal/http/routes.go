package http

import (
	"time"

	"microwallet/internal/http/handlers"
	"microwallet/internal/http/middleware"
	"microwallet/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxBodyBytes bounds every /api request body
const maxBodyBytes = 16 << 10

// Limits holds the per-scope rate limits
type Limits struct {
	APIRequests  int
	APIWindow    time.Duration
	AuthRequests int
	AuthWindow   time.Duration
	ChatRequests int
	ChatWindow   time.Duration
}

type Deps struct {
	Handler        *handlers.Handler
	Health         *handlers.HealthHandler
	Hub            *ws.Hub
	RateLimiter    *middleware.RateLimiter
	Limits         Limits
	AllowedOrigin  string
	AdminToken     string
	RequestTimeout time.Duration
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := d.Handler
	rl := d.RateLimiter

	r.Use(middleware.RequestID(), middleware.AccessLog(), middleware.Metrics(), middleware.CORS(d.AllowedOrigin))

	// Health checks (no rate limiting)
	r.GET("/health", d.Health.Health)
	r.GET("/healthz", d.Health.Liveness)
	r.GET("/readyz", d.Health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ws", h.WS(d.Hub, d.AllowedOrigin))

	api := r.Group("/api")
	api.Use(middleware.BodyLimit(maxBodyBytes), middleware.Timeout(d.RequestTimeout), rl.PerIP("api", d.Limits.APIRequests, d.Limits.APIWindow))

	authLimit := rl.PerIP("auth", d.Limits.AuthRequests, d.Limits.AuthWindow)
	api.POST("/signup", authLimit, h.Signup)
	api.POST("/login", authLimit, h.Login)

	jwt := middleware.JWT(h.Tokens, h.Revocations)
	user := api.Group("", jwt)
	user.POST("/logout", h.Logout)
	user.GET("/me", h.Me)
	user.GET("/balance", h.Balance)
	user.GET("/transactions", h.Transactions)
	user.GET("/referrals", h.ListReferrals)

	user.POST("/change-name", h.ChangeName)
	user.POST("/change-password", h.ChangePassword)
	user.POST("/set-withdrawal-pin", h.SetWithdrawalPIN)
	user.POST("/change-withdrawal-pin", h.ChangeWithdrawalPIN)

	user.POST("/withdraw", h.Withdraw)
	user.GET("/withdrawals", h.ListWithdrawals)
	user.POST("/transfer", h.Transfer)

	chatLimit := rl.PerUser("chat", d.Limits.ChatRequests, d.Limits.ChatWindow)
	user.POST("/chat", chatLimit, h.ChatSend)
	user.GET("/chat/history", h.ChatHistory)
	user.DELETE("/chat/clear", h.ChatClear)

	admin := api.Group("/admin", middleware.AdminToken(d.AdminToken))
	admin.GET("/withdrawals/pending", h.PendingWithdrawals)
	admin.POST("/withdrawals/:id/complete", h.CompleteWithdrawal)
	admin.POST("/withdrawals/:id/reject", h.RejectWithdrawal)
	admin.GET("/users/:id/audit", h.UserAudit)
	admin.GET("/stats", h.Stats)
}
