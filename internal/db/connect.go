package db

import (
	"context"
	"strconv"
	"time"

	"microwallet/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pool whose statements are bounded by statementTimeout
func Connect(dsn string, statementTimeout time.Duration) *pgxpool.Pool {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Fatal("failed to parse database url", "error", err)
	}
	cfg.ConnConfig.ConnectTimeout = 5 * time.Second
	if statementTimeout > 0 {
		cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(statementTimeout.Milliseconds(), 10)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to create database pool", "error", err)
	}

	if err := db.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", "error", err)
	}

	logger.Info("database connected")
	return db
}
