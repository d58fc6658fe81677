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
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Search   SearchConfig   `mapstructure:"search"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// CatalogConfig holds the remote catalog service configuration
type CatalogConfig struct {
	BaseURL                string `mapstructure:"base_url"`
	Timeout                int    `mapstructure:"timeout"`
	MaxRetries             int    `mapstructure:"max_retries"`
	MaxRequestsPerSecond   int    `mapstructure:"max_requests_per_second"`
	CircuitBreakerCooldown int    `mapstructure:"circuit_breaker_cooldown"`
}

// SearchConfig holds the search session behaviour
type SearchConfig struct {
	DefaultLimit    int     `mapstructure:"default_limit"`
	MinPriceDefault float64 `mapstructure:"min_price_default"`
	MaxPriceDefault float64 `mapstructure:"max_price_default"`
	StaleTimeMs     int     `mapstructure:"stale_time_ms"`
	GCTime          int     `mapstructure:"gc_time"`
	UserID          string  `mapstructure:"user_id"`
}

// RedisConfig holds the shared query cache connection details
type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	Database  int    `mapstructure:"database"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// DatabaseConfig holds the search log database configuration
type DatabaseConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func (c CatalogConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c CatalogConfig) CooldownDuration() time.Duration {
	return time.Duration(c.CircuitBreakerCooldown) * time.Second
}

func (c SearchConfig) StaleTime() time.Duration {
	return time.Duration(c.StaleTimeMs) * time.Millisecond
}

func (c SearchConfig) GCTimeDuration() time.Duration {
	return time.Duration(c.GCTime) * time.Second
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads config.yaml from the working directory with environment variable
// overrides. A missing file leaves the defaults in place.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom reads config.yaml from dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return errors.New("catalog.base_url must be set")
	}
	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Search.MinPriceDefault >= c.Search.MaxPriceDefault {
		return fmt.Errorf("search.min_price_default (%v) must be below search.max_price_default (%v)",
			c.Search.MinPriceDefault, c.Search.MaxPriceDefault)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("catalog.base_url", "http://localhost:3000")
	v.SetDefault("catalog.timeout", 15)
	v.SetDefault("catalog.max_retries", 2)
	v.SetDefault("catalog.max_requests_per_second", 20)
	v.SetDefault("catalog.circuit_breaker_cooldown", 30)

	v.SetDefault("search.default_limit", 12)
	v.SetDefault("search.min_price_default", 500)
	v.SetDefault("search.max_price_default", 5000)
	v.SetDefault("search.stale_time_ms", 5000)
	v.SetDefault("search.gc_time", 300)
	v.SetDefault("search.user_id", "")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.key_prefix", "facetsync:")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "laptops")
	v.SetDefault("database.user", "laptops_user")
	v.SetDefault("database.password", "laptops_pass")

	v.SetDefault("log.level", "info")
}
