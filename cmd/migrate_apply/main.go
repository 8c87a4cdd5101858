package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"microwallet/internal/db"
	"microwallet/internal/logger"
	"microwallet/internal/migrations"

	"github.com/joho/godotenv"
)

func main() {
	apply := flag.Bool("apply", false, "apply migrations")
	flag.Parse()

	names, err := migrations.Names()
	if err != nil {
		logger.Fatal("list migrations", "error", err)
	}
	if !*apply {
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	pool := db.Connect(dsn, 0)
	defer pool.Close()

	if err := migrations.Apply(context.Background(), pool); err != nil {
		logger.Fatal("apply migrations", "error", err)
	}
	logger.Info("migrations applied", "count", len(names))
}
