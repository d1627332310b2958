package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"

	"github.com/vietddude/notifier/internal/core/domain"
	"github.com/vietddude/notifier/internal/infra/sink"
)

const defaultExplorerURL = "https://explorer.cow.fi"

// Load reads configuration from a YAML file. A .env file next to the working directory is
// loaded first, if present, so ${VAR} references can resolve from it.
func Load(path string) (*AppConfig, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML content, expands environment variables and applies defaults.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Checkpoint.Backend == "" {
		if cfg.Database.URL != "" {
			cfg.Checkpoint.Backend = BackendPostgres
		} else {
			cfg.Checkpoint.Backend = BackendMemory
		}
	}

	if cfg.Redis.SubscriptionTTL == 0 {
		cfg.Redis.SubscriptionTTL = time.Minute
	}
	if cfg.Redis.TokenTTL == 0 {
		cfg.Redis.TokenTTL = 24 * time.Hour
	}

	if cfg.Sink.Transport == "" {
		cfg.Sink.Transport = sink.TransportLog
	}
	if cfg.Sink.Topic == "" {
		cfg.Sink.Topic = "notifications"
	}
	if cfg.Sink.Encoding == "" {
		cfg.Sink.Encoding = sink.EncodingJSON
	}

	if cfg.CMS.Timeout == 0 {
		cfg.CMS.Timeout = 10 * time.Second
	}

	if cfg.Producers.TradeInterval == 0 {
		cfg.Producers.TradeInterval = 10 * time.Second
	}
	if cfg.Producers.ExpiryInterval == 0 {
		cfg.Producers.ExpiryInterval = 10 * time.Second
	}
	if cfg.Producers.FeedInterval == 0 {
		cfg.Producers.FeedInterval = 10 * time.Second
	}
	if cfg.Producers.BatchSize == 0 {
		cfg.Producers.BatchSize = 5000
	}

	for i := range cfg.Chains {
		if cfg.Chains[i].ExplorerURL == "" {
			cfg.Chains[i].ExplorerURL = defaultExplorerURL
		}
		for j := range cfg.Chains[i].Providers {
			p := &cfg.Chains[i].Providers[j]
			if p.Timeout == 0 {
				p.Timeout = 30 * time.Second
			}
			if p.Name == "" {
				p.Name = fmt.Sprintf("%s-%d", cfg.Chains[i].ChainID, j)
			}
		}
	}
}

// Validate checks the configuration for errors that would otherwise only show up at runtime.
func (c *AppConfig) Validate() error {
	var errs []error

	switch c.Checkpoint.Backend {
	case BackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("checkpoint backend postgres requires database.url"))
		}
	case BackendBadger:
		if c.Checkpoint.BadgerPath == "" {
			errs = append(errs, errors.New("checkpoint backend badger requires checkpoint.badger_path"))
		}
	case BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend))
	}

	switch c.Sink.Transport {
	case sink.TransportLog, sink.TransportGoChannel:
	case sink.TransportNATS:
		if c.Sink.NATSURL == "" {
			errs = append(errs, errors.New("sink transport nats requires sink.nats_url"))
		}
	case sink.TransportKafka:
		if len(c.Sink.KafkaBrokers) == 0 {
			errs = append(errs, errors.New("sink transport kafka requires sink.kafka_brokers"))
		}
	case sink.TransportAMQP:
		if c.Sink.AMQPURL == "" {
			errs = append(errs, errors.New("sink transport amqp requires sink.amqp_url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown sink transport %q", c.Sink.Transport))
	}

	if len(c.Chains) == 0 && c.CMS.BaseURL == "" {
		errs = append(errs, errors.New("nothing to run: configure at least one chain or cms.base_url"))
	}

	seen := make(map[string]bool)
	for _, chain := range c.Chains {
		if !chain.ChainID.IsSupported() {
			errs = append(errs, fmt.Errorf("unsupported chain id %q", chain.ChainID))
		}
		if seen[string(chain.ChainID)] {
			errs = append(errs, fmt.Errorf("chain %s configured twice", chain.ChainID))
		}
		seen[string(chain.ChainID)] = true

		if len(chain.Providers) == 0 {
			errs = append(errs, fmt.Errorf("chain %s has no RPC providers", chain.ChainID))
		}
		for _, p := range chain.Providers {
			if p.URL == "" {
				errs = append(errs, fmt.Errorf("chain %s provider %s has no url", chain.ChainID, p.Name))
			}
		}
		if chain.Settlement != "" && !domain.IsAddress(chain.Settlement) {
			errs = append(errs, fmt.Errorf("chain %s settlement %q is not an address", chain.ChainID, chain.Settlement))
		}
		for _, s := range chain.Sentinels {
			if !domain.IsAddress(s) {
				errs = append(errs, fmt.Errorf("chain %s sentinel %q is not an address", chain.ChainID, s))
			}
		}
	}

	return errors.Join(errs...)
}
