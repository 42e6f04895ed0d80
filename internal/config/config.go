package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"

	// MinSecretLength is the minimum HS256 signing secret length in bytes
	MinSecretLength = 32
)

const envPrefix = "WALLETAUTH_"

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	AccessTTL  time.Duration `yaml:"access_ttl"`
	RefreshTTL time.Duration `yaml:"refresh_ttl"`
}

type LimiterConfig struct {
	// MaxVerifyAttempts of 0 disables limiting
	MaxVerifyAttempts int           `yaml:"max_verify_attempts"`
	Window            time.Duration `yaml:"window"`
}

type EventsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Config is the full service configuration
type Config struct {
	Server      ServerConfig  `yaml:"server"`
	LogLevel    string        `yaml:"log_level"`
	Chain       string        `yaml:"chain"`
	Store       string        `yaml:"store"`
	RedisURL    string        `yaml:"redis_url"`
	PostgresDSN string        `yaml:"postgres_dsn"`
	JWT         JWTConfig     `yaml:"jwt"`
	Limiter     LimiterConfig `yaml:"limiter"`
	Events      EventsConfig  `yaml:"events"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Addr: ":9000"},
		LogLevel: "info",
		Chain:    "stellar",
		Store:    StoreMemory,
		RedisURL: "redis://localhost:6379/0",
		JWT: JWTConfig{
			Issuer:     "walletauth",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Limiter: LimiterConfig{
			MaxVerifyAttempts: 5,
			Window:            15 * time.Minute,
		},
	}
}

// LoadEnv loads the given env files into the process environment, skipping missing ones
func LoadEnv(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads the optional YAML file at path, applies WALLETAUTH_* overrides and validates
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"ADDR":         &c.Server.Addr,
		"LOG_LEVEL":    &c.LogLevel,
		"CHAIN":        &c.Chain,
		"STORE":        &c.Store,
		"REDIS_URL":    &c.RedisURL,
		"POSTGRES_DSN": &c.PostgresDSN,
		"JWT_SECRET":   &c.JWT.Secret,
		"JWT_ISSUER":   &c.JWT.Issuer,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ACCESS_TTL":     &c.JWT.AccessTTL,
		"REFRESH_TTL":    &c.JWT.RefreshTTL,
		"ATTEMPT_WINDOW": &c.Limiter.Window,
	}
	for key, dst := range durations {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s: %w", envPrefix, key, err)
			}
			*dst = d
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "MAX_VERIFY_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_VERIFY_ATTEMPTS: %w", envPrefix, err)
		}
		c.Limiter.MaxVerifyAttempts = n
	}

	if v, ok := os.LookupEnv(envPrefix + "EVENTS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sEVENTS_ENABLED: %w", envPrefix, err)
		}
		c.Events.Enabled = b
	}

	return nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWT.Secret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLength))
	}
	if c.JWT.AccessTTL <= 0 {
		errs = append(errs, errors.New("access ttl must be positive"))
	}
	if c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("refresh ttl must be positive"))
	}

	switch c.Chain {
	case "stellar", "ethereum":
	default:
		errs = append(errs, fmt.Errorf("unknown chain %q", c.Chain))
	}

	switch c.Store {
	case StoreMemory, StoreRedis:
	case StorePostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres store requires postgres_dsn"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}

	if c.Limiter.MaxVerifyAttempts < 0 {
		errs = append(errs, errors.New("max verify attempts must not be negative"))
	}
	if c.Limiter.MaxVerifyAttempts > 0 && c.Limiter.Window <= 0 {
		errs = append(errs, errors.New("attempt window must be positive"))
	}

	return errors.Join(errs...)
}

// NeedsRedis reports whether any configured component talks to Redis
func (c *Config) NeedsRedis() bool {
	return c.Store == StoreRedis || c.Events.Enabled
}
