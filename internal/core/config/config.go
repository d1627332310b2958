package config

import (
	"time"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/cms"
	redisclient "github.com/vietddude/notifier/internal/infra/redis"
	"github.com/vietddude/notifier/internal/infra/sink"
	"github.com/vietddude/notifier/internal/infra/storage/postgres"
)

// Checkpoint backends.
const (
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
	BackendMemory   = "memory"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Database   postgres.Config  `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Checkpoint CheckpointConfig `yaml:"checkpoint"`
	Sink       sink.Config      `yaml:"sink"`
	CMS        cms.Config       `yaml:"cms"`
	Producers  ProducersConfig  `yaml:"producers"`
	Chains     []ChainConfig    `yaml:"chains"`

	// Subscriptions seeds the in-memory subscription source when no database is configured.
	Subscriptions []string `yaml:"subscriptions"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// RedisConfig holds the Redis connection and cache TTLs.
type RedisConfig struct {
	redisclient.Config `yaml:",inline"`

	SubscriptionTTL time.Duration `yaml:"subscription_ttl"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
}

// CheckpointConfig selects where checkpoints live.
type CheckpointConfig struct {
	Backend    string `yaml:"backend"` // postgres, badger, memory
	BadgerPath string `yaml:"badger_path"`
}

// ProducersConfig holds cycle settings shared by every chain.
type ProducersConfig struct {
	TradeInterval  time.Duration `yaml:"trade_interval"`
	ExpiryInterval time.Duration `yaml:"expiry_interval"`
	FeedInterval   time.Duration `yaml:"feed_interval"`
	BatchSize      uint64        `yaml:"batch_size"`
	DisableExpiry  bool          `yaml:"disable_expiry"`
}

// ChainConfig holds settings for a specific chain.
type ChainConfig struct {
	ChainID     domain.ChainID   `yaml:"id"`
	ExplorerURL string           `yaml:"explorer_url"`
	Settlement  string           `yaml:"settlement"`
	Sentinels   []string         `yaml:"sentinels"`
	Providers   []ProviderConfig `yaml:"providers"`
}

// ProviderConfig holds settings for an RPC provider.
type ProviderConfig struct {
	Name      string        `yaml:"name"`
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int           `yaml:"burst"`
}
