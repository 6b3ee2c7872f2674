// Package config loads the Athena service configuration from file and
// environment via viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the Athena API service.
type Config struct {
	Debug      bool             `mapstructure:"debug"`
	Server     ServerConfig     `mapstructure:"server"`
	Neo4j      Neo4jConfig      `mapstructure:"neo4j"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Traversal  TraversalConfig  `mapstructure:"traversal"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Consul     ConsulConfig     `mapstructure:"consul"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Neo4jConfig configures the graph database connection.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	Username              string        `mapstructure:"username"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// CacheConfig configures the response cache. Backend is "memory" or "redis".
type CacheConfig struct {
	Backend    string        `mapstructure:"backend"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

// RedisConfig configures the optional Redis cache backend.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	Database int    `mapstructure:"database"`
}

// TraversalConfig bounds pathway analysis requests.
type TraversalConfig struct {
	DefaultMaxHops int           `mapstructure:"default_max_hops"`
	HardMaxHops    int           `mapstructure:"hard_max_hops"`
	DefaultLimit   int           `mapstructure:"default_limit"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RetryBackoff   time.Duration `mapstructure:"retry_backoff"`
	NodeCacheSize  int           `mapstructure:"node_cache_size"`
}

// RateLimitConfig configures per-client request throttling.
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
	RPS     int  `mapstructure:"rps"`
	Burst   int  `mapstructure:"burst"`
}

// MonitoringConfig configures the Prometheus metrics listener.
type MonitoringConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// ConsulConfig configures optional service registration.
type ConsulConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig reads configuration from the already-initialized viper instance,
// applying defaults and environment overrides (ATHENA_ prefix, e.g.
// ATHENA_NEO4J_URI).
func LoadConfig() (*Config, error) {
	setDefaults()

	viper.SetEnvPrefix("athena")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("debug", false)

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)

	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.password", "password")
	viper.SetDefault("neo4j.database", "neo4j")
	viper.SetDefault("neo4j.max_connection_pool_size", 50)
	viper.SetDefault("neo4j.connection_timeout", 30*time.Second)

	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.default_ttl", 5*time.Minute)
	viper.SetDefault("cache.redis.host", "localhost")
	viper.SetDefault("cache.redis.port", 6379)
	viper.SetDefault("cache.redis.database", 0)

	viper.SetDefault("traversal.default_max_hops", 4)
	viper.SetDefault("traversal.hard_max_hops", 8)
	viper.SetDefault("traversal.default_limit", 20)
	viper.SetDefault("traversal.timeout", 30*time.Second)
	viper.SetDefault("traversal.retry_backoff", 500*time.Millisecond)
	viper.SetDefault("traversal.node_cache_size", 4096)

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.rps", 50)
	viper.SetDefault("rate_limit.burst", 100)

	viper.SetDefault("monitoring.enabled", false)
	viper.SetDefault("monitoring.port", 9090)

	viper.SetDefault("consul.enabled", false)
	viper.SetDefault("consul.host", "localhost")
	viper.SetDefault("consul.port", 8500)

	viper.SetDefault("logging.level", "info")
}

// Validate checks cross-field constraints that viper cannot express.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j URI is required")
	}
	if c.Traversal.DefaultMaxHops < 1 {
		return fmt.Errorf("traversal default_max_hops must be at least 1")
	}
	if c.Traversal.HardMaxHops < c.Traversal.DefaultMaxHops {
		return fmt.Errorf("traversal hard_max_hops (%d) below default_max_hops (%d)",
			c.Traversal.HardMaxHops, c.Traversal.DefaultMaxHops)
	}
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported cache backend: %q", c.Cache.Backend)
	}
	return nil
}
