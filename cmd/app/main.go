package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/bot"
	"github.com/chancov/WebAppMiningGameTG/internal/config"
	"github.com/chancov/WebAppMiningGameTG/internal/db"
	"github.com/chancov/WebAppMiningGameTG/internal/events"
	httpServer "github.com/chancov/WebAppMiningGameTG/internal/http"
	"github.com/chancov/WebAppMiningGameTG/internal/http/handlers"
	"github.com/chancov/WebAppMiningGameTG/internal/logger"
	"github.com/chancov/WebAppMiningGameTG/internal/repository"
	"github.com/chancov/WebAppMiningGameTG/internal/service"
	"github.com/chancov/WebAppMiningGameTG/internal/ws"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	logger.Info("starting", "version", version, "config", cfg.String())

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.SentryDSN, Release: version}); err != nil {
			logger.Warn("sentry init failed", "error", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	service.InitJWT(cfg.JWTSecret)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ledger store
	var store repository.Store
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory store, balances are lost on restart")
		store = repository.NewMemoryStore()
	} else {
		pool := db.Connect(ctx, cfg.DatabaseURL)
		defer pool.Close()
		store = repository.NewPgStore(pool)
	}

	rdb := connectRedis(ctx, cfg)
	if rdb != nil {
		defer rdb.Close()
	}

	// Event fan-out: live websocket pushes, leaderboard cache eviction, plus the broker when configured
	hub := ws.NewHub()
	boardCache := service.NewLeaderboardCache(rdb, cfg.LeaderboardTTL())
	publishers := events.Multi{hub, boardCache}
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			logger.Warn("amqp unavailable, events stay local", "error", err)
		} else {
			defer amqpPub.Close()
			publishers = append(publishers, amqpPub)
		}
	}

	deps := service.Deps{Events: publishers}
	deps.Audit = service.NewAuditService(store)

	accounts := service.NewAccountService(store, deps)
	shop := service.NewShopService(store, deps)

	// The catalog must exist before the first request can buy from it.
	seeded, err := shop.Bootstrap(ctx)
	if err != nil {
		logger.Fatal("failed to seed cosmetic catalog", "error", err)
	}
	if seeded > 0 {
		logger.Info("cosmetic catalog seeded", "items", seeded)
	}

	h := &handlers.Handler{
		Accounts:      accounts,
		Mining:        service.NewMiningService(store, deps),
		Upgrades:      service.NewUpgradeService(store, deps),
		Transfers:     service.NewTransferService(store, deps, cfg.AllowSelfTransfer),
		Shop:          shop,
		Leaderboard:   service.NewLeaderboardService(store, boardCache),
		Audit:         deps.Audit,
		Authenticator: service.NewAuthService(accounts, cfg.BotToken),
	}

	gin.SetMode(gin.ReleaseMode)
	r := httpServer.NewRouter(h, handlers.NewHealthHandler(store, rdb, version), hub, httpServer.RouteOptions{
		AuthRequired:  cfg.AuthRequired,
		AllowedOrigin: cfg.AllowedOrigin,
		APIRateLimit:  cfg.APIRateLimit,
		AuthRateLimit: cfg.AuthRateLimit,
		RateWindow:    cfg.RateWindow(),
		Redis:         rdb,
	})

	if cfg.BotEnabled {
		b, err := bot.New(cfg.BotToken, cfg.WebAppURL, accounts)
		if err != nil {
			logger.Error("failed to start bot", "error", err)
		} else {
			go b.Start()
			defer b.Stop()
		}
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server exited")
}

// connectRedis returns nil when redis is not configured or unreachable; the
// rate limiter and leaderboard cache both run without it.
func connectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if !cfg.RedisEnabled() {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, using in-process rate limiting", "addr", cfg.RedisAddr, "error", err)
		_ = client.Close()
		return nil
	}
	return client
}
