package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production"`

	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"90s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"15s"`
	} `yaml:"server"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`

	Agent struct {
		ID             string `yaml:"id" default:"stockgate-agent"`
		Name           string `yaml:"name" default:"StockGate"`
		Version        string `yaml:"version" default:"1.0.0"`
		ResponsePrefix string `yaml:"response_prefix"`
	} `yaml:"agent"`

	RateLimit struct {
		Enabled   bool `yaml:"enabled" default:"true"`
		PerMinute int  `yaml:"per_minute" default:"100" validate:"gt=0"`
	} `yaml:"rate_limit"`

	MarketData struct {
		BaseURL          string        `yaml:"base_url" validate:"required,url"`
		APIKey           string        `yaml:"api_key"`
		Timeout          time.Duration `yaml:"timeout" default:"10s"`
		MaxAttempts      int           `yaml:"max_attempts" default:"3" validate:"gt=0"`
		BackoffBase      time.Duration `yaml:"backoff_base" default:"200ms"`
		BreakerThreshold int           `yaml:"breaker_threshold" default:"5" validate:"gt=0"`
		BreakerCooldown  time.Duration `yaml:"breaker_cooldown" default:"30s"`
	} `yaml:"market_data"`

	Cache struct {
		SnapshotTTL    time.Duration `yaml:"snapshot_ttl" default:"60s"`
		HistoryTTL     time.Duration `yaml:"history_ttl" default:"4h"`
		HistoryMonths  int           `yaml:"history_months" default:"6" validate:"gt=0"`
		FetchTimeout   time.Duration `yaml:"fetch_timeout" default:"15s"`
		StaleRetention time.Duration `yaml:"stale_retention" default:"1h"`
	} `yaml:"cache"`

	Reasoning struct {
		BaseURL     string        `yaml:"base_url" validate:"required,url"`
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model" default:"gpt-4o-mini"`
		Timeout     time.Duration `yaml:"timeout" default:"30s"`
		Temperature float64       `yaml:"temperature" default:"0.2"`
	} `yaml:"reasoning"`

	Pipeline struct {
		RequestTimeout time.Duration `yaml:"request_timeout" default:"60s"`
		ResultTTL      time.Duration `yaml:"result_ttl" default:"10m"`
		AuditRetention time.Duration `yaml:"audit_retention" default:"720h"`
	} `yaml:"pipeline"`

	Results struct {
		Backend string `yaml:"backend" default:"memory" validate:"oneof=memory redis layered"`
	} `yaml:"results"`

	Audit struct {
		Backend string `yaml:"backend" default:"memory" validate:"oneof=memory clickhouse kafka queue"`
	} `yaml:"audit"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic" default:"stockgate.audit"`
		GroupID string   `yaml:"group_id" default:"stockgate-audit-ingest"`
	} `yaml:"kafka"`

	ClickHouse struct {
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"stockgate"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
	} `yaml:"clickhouse"`

	Redis struct {
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		APIKey         string        `yaml:"api_key"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"stream"`

	Peers []Peer `yaml:"peers" validate:"dive"`
}

// Peer is one registered collaborator on the messaging surface.
type Peer struct {
	AgentID  string `yaml:"agent_id" validate:"required"`
	Endpoint string `yaml:"endpoint" validate:"required,url"`
}

// PeerEndpoints returns the peer list as an id-to-endpoint map.
func (c *Config) PeerEndpoints() map[string]string {
	out := make(map[string]string, len(c.Peers))
	for _, p := range c.Peers {
		out[p.AgentID] = p.Endpoint
	}
	return out
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := &Config{}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML, layering a .env file (if present)
// and environment variables over it. Secrets are expected from the
// environment, never from the YAML file.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("MARKET_DATA_API_KEY"); v != "" {
		c.MarketData.APIKey = v
	}
	if v := os.Getenv("REASONING_API_KEY"); v != "" {
		c.Reasoning.APIKey = v
	}
	if v := os.Getenv("STREAM_API_KEY"); v != "" {
		c.Stream.APIKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	return c, nil
}

// Validate checks structural constraints plus the cross-field rules the
// tag validator cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Audit.Backend == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("audit.backend kafka requires kafka.brokers")
	}
	if c.Stream.Enabled && c.Stream.APIKey == "" {
		return fmt.Errorf("stream.enabled requires stream.api_key")
	}
	return nil
}
