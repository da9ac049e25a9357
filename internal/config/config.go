package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	MongoDB    MongoDBConfig    `mapstructure:"mongodb"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Log        LogConfig        `mapstructure:"log"`
	Game       GameConfig       `mapstructure:"game"`
	Settlement SettlementConfig `mapstructure:"settlement"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Promo      PromoConfig      `mapstructure:"promo"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Cron       CronConfig       `mapstructure:"cron"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	AllowedHosts    []string      `mapstructure:"allowed_hosts"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string        `mapstructure:"secret"`
	ExpiresIn time.Duration `mapstructure:"expires_in"`
	Issuer    string        `mapstructure:"issuer"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

// GameConfig drives the round lifecycle.
type GameConfig struct {
	MinBettors      int           `mapstructure:"min_bettors"`
	CountdownWindow time.Duration `mapstructure:"countdown_window"`
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	SpinDuration    time.Duration `mapstructure:"spin_duration"`
	FinishGrace     time.Duration `mapstructure:"finish_grace"`
	StartingBalance float64       `mapstructure:"starting_balance"`
	MinBet          float64       `mapstructure:"min_bet"`
	MaxBet          float64       `mapstructure:"max_bet"`
	AmountPrecision int32         `mapstructure:"amount_precision"`
	HistoryLimit    int           `mapstructure:"history_limit"`
	PresenceTTL     time.Duration `mapstructure:"presence_ttl"`
	OpTimeout       time.Duration `mapstructure:"op_timeout"`
}

// SettlementConfig bounds the payout retry loop.
type SettlementConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
}

type AuthConfig struct {
	AllowMockLogin   bool          `mapstructure:"allow_mock_login"`
	TelegramBotToken string        `mapstructure:"telegram_bot_token"`
	TelegramMaxAge   time.Duration `mapstructure:"telegram_max_age"`
}

// AdminConfig seeds the first admin user when the collection is empty.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type PromoConfig struct {
	SeedDefaults bool `mapstructure:"seed_defaults"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type CronConfig struct {
	AuditSpec    string `mapstructure:"audit_spec"`
	PresenceSpec string `mapstructure:"presence_spec"`
	LimiterSpec  string `mapstructure:"limiter_spec"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// Load loads configuration from environment variables and config files
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("JACKPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the round engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.JWT.Secret == "":
		return errors.New("config: jwt.secret is required")
	case c.Game.MinBettors < 2:
		return fmt.Errorf("config: game.min_bettors must be at least 2, got %d", c.Game.MinBettors)
	case c.Game.CountdownWindow <= 0 || c.Game.SpinDuration <= 0 || c.Game.FinishGrace <= 0:
		return errors.New("config: game durations must be positive")
	case c.Game.TickInterval <= 0:
		return errors.New("config: game.tick_interval must be positive")
	case c.Game.StartingBalance < 0:
		return errors.New("config: game.starting_balance must not be negative")
	case c.Settlement.MaxAttempts < 1:
		return errors.New("config: settlement.max_attempts must be at least 1")
	}
	return nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "4000")
	v.SetDefault("server.allowed_hosts", []string{"http://localhost:3000"})
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.request_timeout", 10*time.Second)
	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "jackpot")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expires_in", 24*time.Hour)
	v.SetDefault("jwt.issuer", "jackpot-backend")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")

	v.SetDefault("game.min_bettors", 2)
	v.SetDefault("game.countdown_window", 60*time.Second)
	v.SetDefault("game.tick_interval", time.Second)
	v.SetDefault("game.spin_duration", 3*time.Second)
	v.SetDefault("game.finish_grace", 10*time.Second)
	v.SetDefault("game.starting_balance", 1000)
	v.SetDefault("game.min_bet", 0.01)
	v.SetDefault("game.max_bet", 0)
	v.SetDefault("game.amount_precision", 2)
	v.SetDefault("game.history_limit", 20)
	v.SetDefault("game.presence_ttl", 60*time.Second)
	v.SetDefault("game.op_timeout", 5*time.Second)

	v.SetDefault("settlement.max_attempts", 5)
	v.SetDefault("settlement.initial_backoff", 200*time.Millisecond)
	v.SetDefault("settlement.max_backoff", 5*time.Second)

	v.SetDefault("auth.allow_mock_login", false)
	v.SetDefault("auth.telegram_bot_token", "")
	v.SetDefault("auth.telegram_max_age", 24*time.Hour)
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("promo.seed_defaults", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "jackpot:events")

	v.SetDefault("cron.audit_spec", "*/30 * * * * *")
	v.SetDefault("cron.presence_spec", "*/15 * * * * *")
	v.SetDefault("cron.limiter_spec", "0 */10 * * * *")

	v.SetDefault("rate_limit.requests_per_second", 5)
	v.SetDefault("rate_limit.burst", 10)
}
