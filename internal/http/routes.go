package http

import (
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/http/handlers"
	"github.com/chancov/WebAppMiningGameTG/internal/http/middleware"
	"github.com/chancov/WebAppMiningGameTG/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

// RouteOptions carries the knobs the router needs from configuration.
type RouteOptions struct {
	AuthRequired  bool
	AllowedOrigin string

	APIRateLimit  int
	AuthRateLimit int
	RateWindow    time.Duration

	// Redis backs the rate limiter when set; nil falls back to in-process.
	Redis *redis.Client
}

// NewRouter builds the gin engine with global middleware and every route.
func NewRouter(h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, opts RouteOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(), middleware.Metrics(), middleware.CORS(opts.AllowedOrigin))
	RegisterRoutes(r, h, health, hub, opts)
	return r
}

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, opts RouteOptions) {
	// Health checks (no rate limiting)
	r.GET("/health", health.Health)
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Live account events
	r.GET("/ws", ws.HandleWS(hub, opts.AuthRequired, opts.AllowedOrigin))

	apiRL := middleware.RedisRateLimit(opts.Redis, opts.APIRateLimit, opts.RateWindow)
	authRL := middleware.RedisRateLimit(opts.Redis, opts.AuthRateLimit, opts.RateWindow)

	// API v1 routes
	v1 := r.Group("/api/v1")
	v1.Use(apiRL)
	registerAPIRoutes(v1, h, authRL, opts.AuthRequired)

	// Legacy /api routes, kept for clients built against the old paths
	api := r.Group("/api")
	api.Use(apiRL)
	api.GET("/health", health.Health)
	registerAPIRoutes(api, h, authRL, opts.AuthRequired)
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, authRL gin.HandlerFunc, authRequired bool) {
	// Auth
	api.POST("/auth", authRL, h.Auth)

	econ := api.Group("")
	econ.Use(middleware.Identity(authRequired))

	// Accounts and referrals
	econ.POST("/register", h.Register)
	econ.GET("/profile", h.Profile)
	econ.GET("/referrals", h.Referrals)
	econ.GET("/user_stats", h.UserStats)
	econ.POST("/set_card_bg", h.SetCardBg)
	econ.GET("/activity", h.Activity)

	// Mining
	econ.POST("/mine", h.Mine)
	econ.GET("/mining_status", h.MiningStatus)
	econ.POST("/claim", h.Claim)

	// Upgrades
	econ.GET("/upgrades", h.ListUpgrades)
	econ.POST("/buy_upgrade", h.BuyUpgrade)

	// Shop
	econ.GET("/shop_cards", h.ShopCards)
	econ.POST("/buy_card", h.BuyCard)
	econ.GET("/my_cards", h.MyCards)

	// Transfers and rewards
	econ.POST("/send", h.Send)
	econ.GET("/history", h.History)
	econ.POST("/add_game_reward", h.AddGameReward)

	// Leaderboard
	econ.GET("/leaderboard", h.GetLeaderboard)
}
