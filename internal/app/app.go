// Package app assembles the wallet's services over a chosen storage backend.
package app

import (
	"context"
	"time"

	"microwallet/internal/cache"
	"microwallet/internal/chat"
	"microwallet/internal/config"
	httpServer "microwallet/internal/http"
	"microwallet/internal/http/handlers"
	"microwallet/internal/http/middleware"
	"microwallet/internal/repository"
	"microwallet/internal/repository/memory"
	"microwallet/internal/service"
	"microwallet/internal/ws"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
)

// Stores is the persistence a wallet runs on
type Stores struct {
	Tx           service.TxRunner
	Users        service.UserStore
	Transactions service.TransactionReader
	Withdrawals  service.WithdrawalReader
	Audit        service.AuditStore
	Chat         chat.Store
	Stats        service.StatsStore
	Referrals    service.ReferralReader
	Ping         handlers.Check
}

func MemoryStores(s *memory.Store) Stores {
	return Stores{
		Tx:           s,
		Users:        s,
		Transactions: s,
		Withdrawals:  s,
		Audit:        s,
		Chat:         s,
		Stats:        s,
		Referrals:    s,
		Ping:         s.Ping,
	}
}

func PostgresStores(pool *pgxpool.Pool) Stores {
	tm := repository.NewTxManager(pool)
	return Stores{
		Tx:           tm,
		Users:        repository.NewUserRepository(pool),
		Transactions: repository.NewTransactionRepository(pool),
		Withdrawals:  repository.NewWithdrawalRepository(pool),
		Audit:        repository.NewAuditRepository(pool),
		Chat:         repository.NewChatRepository(pool),
		Stats:        repository.NewStatsRepository(pool),
		Referrals:    repository.NewReferralRepository(pool),
		Ping:         tm.Ping,
	}
}

// App holds the constructed services and the notification hub
type App struct {
	Hub         *ws.Hub
	Tokens      *service.TokenService
	Accounts    *service.AccountService
	Withdrawals *service.WithdrawalService
	Transfers   *service.TransferService
	Referrals   *service.ReferralService
	Audit       *service.AuditService
	Admin       *service.AdminService
	Chat        *chat.Service
	Denylist    *cache.Denylist

	stores Stores
	redis  *redis.Client
}

// New wires the services. rdb may be nil; completer defaults to the
// configured chat provider.
func New(cfg *config.Config, stores Stores, rdb *redis.Client, completer chat.Completer) *App {
	hub := ws.NewHub()
	hasher := service.NewHasher(cfg.BcryptCost)
	tokens := service.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	audit := service.NewAuditService(stores.Audit)
	ledger := service.NewLedger(stores.Tx, hub)

	if completer == nil {
		completer = chat.NewClient(chat.ClientConfig{
			URL:     cfg.OpenRouterURL,
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.ChatModel,
			Referer: cfg.ChatReferer,
			Title:   cfg.ChatTitle,
			Timeout: cfg.ChatTimeout,
		})
	}

	a := &App{
		Hub:         hub,
		Tokens:      tokens,
		Withdrawals: service.NewWithdrawalService(stores.Users, stores.Withdrawals, ledger, hasher, audit),
		Transfers:   service.NewTransferService(stores.Users, ledger, hasher, audit),
		Referrals:   service.NewReferralService(stores.Users, stores.Referrals),
		Audit:       audit,
		Admin:       service.NewAdminService(stores.Stats),
		Chat:        chat.NewService(stores.Chat, completer),
		stores:      stores,
		redis:       rdb,
	}

	deps := service.AccountDeps{
		Users:        stores.Users,
		Transactions: stores.Transactions,
		Ledger:       ledger,
		Tokens:       tokens,
		Hasher:       hasher,
		Audit:        audit,
	}
	if rdb != nil {
		a.Denylist = cache.NewDenylist(rdb)
		deps.Revoker = a.Denylist
	}
	a.Accounts = service.NewAccountService(deps)
	return a
}

// RouteDeps builds the HTTP wiring for cfg
func (a *App) RouteDeps(cfg *config.Config) httpServer.Deps {
	h := &handlers.Handler{
		Accounts:    a.Accounts,
		Withdrawals: a.Withdrawals,
		Transfers:   a.Transfers,
		Referrals:   a.Referrals,
		Chat:        a.Chat,
		Audit:       a.Audit,
		Admin:       a.Admin,
		Tokens:      a.Tokens,
	}
	health := handlers.NewHealthHandler(a.stores.Ping, cfg.Version)
	if a.Denylist != nil {
		h.Revocations = a.Denylist
		rdb := a.redis
		health.WithCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}

	return httpServer.Deps{
		Handler:     h,
		Health:      health,
		Hub:         a.Hub,
		RateLimiter: middleware.NewRateLimiter(a.redis),
		Limits: httpServer.Limits{
			APIRequests:  cfg.APIRateLimit,
			APIWindow:    cfg.APIRateWindow,
			AuthRequests: cfg.AuthRateLimit,
			AuthWindow:   cfg.AuthRateWindow,
			ChatRequests: cfg.ChatRateLimit,
			ChatWindow:   cfg.ChatRateWindow,
		},
		AllowedOrigin:  cfg.AllowedOrigin,
		AdminToken:     cfg.AdminAPIToken,
		RequestTimeout: cfg.RequestTimeout,
	}
}

// ConnectRedis returns nil when Redis is not configured or unreachable;
// the wallet then runs with in-process rate limits and stateless logout.
func ConnectRedis(ctx context.Context, cfg *config.Config, warn func(msg string, args ...any)) *redis.Client {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		warn("redis unavailable, continuing without it", "error", err)
		return nil
	}
	return rdb
}
