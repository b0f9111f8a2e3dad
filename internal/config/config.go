package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/logger"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	AppPort     string `validate:"required,numeric"`
	Storage     string `validate:"oneof=postgres memory"`
	DatabaseURL string `validate:"required_if=Storage postgres"`

	RedisAddr     string
	RedisPassword string
	RedisDB       int `validate:"gte=0"`

	JWTSecret    string `validate:"required_if=AuthRequired true"`
	AuthRequired bool

	BotToken   string `validate:"required_if=BotEnabled true"`
	BotEnabled bool
	WebAppURL  string `validate:"omitempty,url"`

	AMQPURL      string `validate:"omitempty,url"`
	AMQPExchange string

	SentryDSN string

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
	LogFile   string

	AllowSelfTransfer bool

	APIRateLimit         int `validate:"gt=0"`
	APIRateWindowSeconds int `validate:"gt=0"`
	AuthRateLimit        int `validate:"gt=0"`
	LeaderboardCacheTTL  int `validate:"gte=0"`

	// AllowedOrigin restricts CORS and websocket origins; empty allows any.
	AllowedOrigin string
}

func defaults(v *viper.Viper) {
	v.SetDefault("app_port", "8080")
	v.SetDefault("storage", StoragePostgres)
	v.SetDefault("redis_db", 0)
	v.SetDefault("amqp_exchange", "mining.events")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("api_rate_limit", 120)
	v.SetDefault("api_rate_window_seconds", 60)
	v.SetDefault("auth_rate_limit", 10)
	v.SetDefault("leaderboard_cache_ttl_seconds", 30)
}

// Load reads .env, the environment and an optional CONFIG_FILE, then validates.
// A missing or invalid setting is fatal.
func Load() *Config {
	cfg, err := load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}
	return cfg
}

func load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	defaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			lvl := v.GetString("log_level")
			logger.SetLevel(lvl)
			logger.Info("config reloaded", "file", e.Name, "log_level", lvl)
		})
		v.WatchConfig()
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:     v.GetString("app_port"),
		Storage:     strings.ToLower(v.GetString("storage")),
		DatabaseURL: v.GetString("database_url"),

		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),

		JWTSecret:    v.GetString("jwt_secret"),
		AuthRequired: v.GetBool("auth_required"),

		BotToken:   v.GetString("bot_token"),
		BotEnabled: v.GetBool("bot_enabled"),
		WebAppURL:  v.GetString("webapp_url"),

		AMQPURL:      v.GetString("amqp_url"),
		AMQPExchange: v.GetString("amqp_exchange"),

		SentryDSN: v.GetString("sentry_dsn"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogFile:   v.GetString("log_file"),

		AllowSelfTransfer: v.GetBool("allow_self_transfer"),

		APIRateLimit:         v.GetInt("api_rate_limit"),
		APIRateWindowSeconds: v.GetInt("api_rate_window_seconds"),
		AuthRateLimit:        v.GetInt("auth_rate_limit"),
		LeaderboardCacheTTL:  v.GetInt("leaderboard_cache_ttl_seconds"),

		AllowedOrigin: v.GetString("allowed_origin"),
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.AppPort
}

// RateWindow is the fixed window shared by the API and auth limiters.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.APIRateWindowSeconds) * time.Second
}

// LeaderboardTTL is how long a cached leaderboard stays fresh.
func (c *Config) LeaderboardTTL() time.Duration {
	return time.Duration(c.LeaderboardCacheTTL) * time.Second
}

// RedisEnabled reports whether a redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func (c *Config) String() string {
	return "storage=" + c.Storage + " port=" + c.AppPort + " redis=" + strconv.FormatBool(c.RedisEnabled()) +
		" auth_required=" + strconv.FormatBool(c.AuthRequired) + " bot=" + strconv.FormatBool(c.BotEnabled)
}
