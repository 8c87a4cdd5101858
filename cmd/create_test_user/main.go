package main

import (
	"context"
	"flag"

	"microwallet/internal/app"
	"microwallet/internal/apperr"
	"microwallet/internal/config"
	"microwallet/internal/db"
	"microwallet/internal/logger"
	"microwallet/internal/service"
)

func main() {
	phone := flag.String("phone", "+10000000001", "phone number")
	name := flag.String("name", "Tester", "display name")
	password := flag.String("password", "testpass", "password")
	device := flag.String("device", "cli-device", "device id")
	referral := flag.String("referral", "", "referral code")
	flag.Parse()

	cfg := config.Load()
	pool := db.Connect(cfg.DatabaseURL, cfg.StatementTimeout)
	defer pool.Close()

	wallet := app.New(cfg, app.PostgresStores(pool), nil, nil)
	ctx := context.Background()

	res, err := wallet.Accounts.Signup(ctx, service.SignupInput{
		Phone:    *phone,
		Name:     *name,
		Password: *password,
		Referral: *referral,
		DeviceID: *device,
		Request:  service.BindingRequest{SourceIP: "127.0.0.1", DeviceID: *device},
	})
	if err == nil {
		logger.Info("user created", "id", res.User.ID, "referral_code", res.ReferralCode,
			"bonus_applied", res.BonusApplied, "token", res.Token)
		return
	}

	if apperr.KindOf(err) != apperr.KindConflict {
		logger.Fatal("signup failed", "error", err)
	}

	token, user, err := wallet.Accounts.Login(ctx, *phone, *password, service.BindingRequest{})
	if err == nil {
		logger.Info("user already exists", "id", user.ID, "referral_code", user.ReferralCode, "token", token)
		return
	}
	logger.Fatal("login failed", "error", err)
}
