package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/config"
	"github.com/chancov/WebAppMiningGameTG/internal/db"
	"github.com/chancov/WebAppMiningGameTG/internal/logger"
	"github.com/chancov/WebAppMiningGameTG/internal/repository"
	"github.com/chancov/WebAppMiningGameTG/internal/service"
	"github.com/chancov/WebAppMiningGameTG/internal/telegram"
)

// Registers (or reuses) a dev account and prints credentials for calling the
// API by hand: a bearer token and, when BOT_TOKEN is set, signed init_data.
func main() {
	tgID := flag.Int64("telegram_id", 1234567890, "telegram id of the test account")
	firstName := flag.String("first_name", "Tester", "first name for a new account")
	refCode := flag.String("ref", "", "referral code of an existing account")
	flag.Parse()

	cfg := config.Load()
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool := db.Connect(ctx, cfg.DatabaseURL)
	defer pool.Close()

	accounts := service.NewAccountService(repository.NewPgStore(pool), service.Deps{})
	identity := strconv.FormatInt(*tgID, 10)
	res, err := accounts.Register(ctx, service.RegisterInput{
		Identity:     identity,
		FirstName:    *firstName,
		ReferralCode: *refCode,
	})
	if err != nil {
		logger.Fatal("register failed", "error", err)
	}

	acc := res.Account
	fmt.Printf("user_id=%d telegram_id=%s balance=%s ref_code=%s was_new=%t was_bonus=%t\n",
		acc.ID, acc.Identity, acc.Balance, acc.ReferralCode, res.WasNew, res.WasBonus)

	if cfg.JWTSecret != "" {
		service.InitJWT(cfg.JWTSecret)
		token, err := service.GenerateJWT(identity)
		if err != nil {
			logger.Fatal("failed to generate token", "error", err)
		}
		fmt.Printf("token=%s\n", token)
	}

	if cfg.BotToken != "" {
		initData := telegram.Sign(url.Values{
			"auth_date": {strconv.FormatInt(time.Now().Unix(), 10)},
			"user":      {fmt.Sprintf(`{"id":%d,"first_name":%q}`, *tgID, *firstName)},
		}, cfg.BotToken)
		fmt.Printf("init_data=%s\n", initData)
	}
}
