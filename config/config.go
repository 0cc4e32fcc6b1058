package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/courseops/auth"
	"github.com/jonwraymond/courseops/cache"
	"github.com/jonwraymond/courseops/observe"
	"github.com/jonwraymond/courseops/resilience"
)

// EnvPrefix prefixes every environment variable the loader reads.
const EnvPrefix = "COURSEOPS"

// Token store backends.
const (
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

// Config is the full console configuration.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Query   QueryConfig   `mapstructure:"query"`
	Retry   RetryConfig   `mapstructure:"retry"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Observe ObserveConfig `mapstructure:"observe"`
	Health  HealthConfig  `mapstructure:"health"`
}

// APIConfig locates the course service.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Version string        `mapstructure:"version"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// QueryConfig holds cache freshness settings.
type QueryConfig struct {
	StaleTime       time.Duration `mapstructure:"stale_time"`
	GCTime          time.Duration `mapstructure:"gc_time"`
	JanitorInterval time.Duration `mapstructure:"janitor_interval"`
}

// RetryConfig holds the read and write retry policies.
type RetryConfig struct {
	Query    RetryPolicy `mapstructure:"query"`
	Mutation RetryPolicy `mapstructure:"mutation"`
}

// RetryPolicy is the configurable part of resilience.RetryConfig. Which
// errors are retried is fixed per policy and not configurable.
type RetryPolicy struct {
	MaxAttempts  int           `mapstructure:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier"`
	Strategy     string        `mapstructure:"strategy"`
	Jitter       bool          `mapstructure:"jitter"`
}

// AuthConfig selects where the session token is kept.
type AuthConfig struct {
	Store string      `mapstructure:"store"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the redis token store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

func (c RedisConfig) String() string {
	return fmt.Sprintf("RedisConfig{Addr: %s, Password: ***, DB: %d, Key: %s}", c.Addr, c.DB, c.Key)
}

// ObserveConfig mirrors observe.Config.
type ObserveConfig struct {
	ServiceName string `mapstructure:"service_name"`
	Version     string `mapstructure:"version"`
	LogLevel    string `mapstructure:"log_level"`
	Logging     bool   `mapstructure:"logging"`

	Tracing struct {
		Enabled   bool    `mapstructure:"enabled"`
		Exporter  string  `mapstructure:"exporter"`
		SamplePct float64 `mapstructure:"sample_pct"`
	} `mapstructure:"tracing"`

	Metrics struct {
		Enabled  bool   `mapstructure:"enabled"`
		Exporter string `mapstructure:"exporter"`
	} `mapstructure:"metrics"`
}

// HealthConfig tunes the health checks.
type HealthConfig struct {
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxCacheEntries int           `mapstructure:"max_cache_entries"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.version", "/api/v1")
	v.SetDefault("api.timeout", 10*time.Second)

	v.SetDefault("query.stale_time", cache.DefaultStaleTime)
	v.SetDefault("query.gc_time", cache.DefaultGCTime)
	v.SetDefault("query.janitor_interval", time.Minute)

	q := resilience.QueryRetryConfig()
	v.SetDefault("retry.query.max_attempts", q.MaxAttempts)
	v.SetDefault("retry.query.initial_delay", q.InitialDelay)
	v.SetDefault("retry.query.max_delay", q.MaxDelay)
	v.SetDefault("retry.query.multiplier", q.Multiplier)
	v.SetDefault("retry.query.strategy", q.Strategy.String())
	v.SetDefault("retry.query.jitter", false)

	m := resilience.MutationRetryConfig()
	v.SetDefault("retry.mutation.max_attempts", m.MaxAttempts)
	v.SetDefault("retry.mutation.initial_delay", m.InitialDelay)
	v.SetDefault("retry.mutation.max_delay", m.MaxDelay)
	v.SetDefault("retry.mutation.multiplier", 2.0)
	v.SetDefault("retry.mutation.strategy", m.Strategy.String())
	v.SetDefault("retry.mutation.jitter", false)

	v.SetDefault("auth.store", TokenStoreMemory)
	v.SetDefault("auth.redis.addr", "")
	v.SetDefault("auth.redis.password", "")
	v.SetDefault("auth.redis.db", 0)
	v.SetDefault("auth.redis.key", auth.DefaultRedisKey)

	v.SetDefault("observe.service_name", "courseops")
	v.SetDefault("observe.version", "")
	v.SetDefault("observe.log_level", "info")
	v.SetDefault("observe.logging", true)
	v.SetDefault("observe.tracing.enabled", false)
	v.SetDefault("observe.tracing.exporter", "none")
	v.SetDefault("observe.tracing.sample_pct", 1.0)
	v.SetDefault("observe.metrics.enabled", false)
	v.SetDefault("observe.metrics.exporter", "none")

	v.SetDefault("health.timeout", 5*time.Second)
	v.SetDefault("health.max_cache_entries", 0)
}

// Default returns the configuration Load produces with no file and no
// environment. BaseURL is empty, so it does not validate as is.
func Default() *Config {
	cfg, _ := load(viper.New(), "")
	return cfg
}

// Load reads path (optional; "" skips the file), applies COURSEOPS_
// environment overrides and expands ${VAR} references. The result is
// validated.
func Load(path string) (*Config, error) {
	cfg, err := load(viper.New(), path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	for _, key := range v.AllKeys() {
		s, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		expanded, err := ExpandEnvStrict(s)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", key, err)
		}
		if expanded != s {
			v.Set(key, expanded)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	switch base := strings.TrimSpace(c.API.BaseURL); {
	case base == "":
		errs = append(errs, ErrMissingBaseURL)
	default:
		u, err := url.Parse(base)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidBaseURL, base))
		}
	}

	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: api.timeout must be positive, got %s", ErrInvalidDuration, c.API.Timeout))
	}
	if c.Query.StaleTime < 0 {
		errs = append(errs, fmt.Errorf("%w: query.stale_time must not be negative, got %s", ErrInvalidDuration, c.Query.StaleTime))
	}
	if c.Query.GCTime < 0 {
		errs = append(errs, fmt.Errorf("%w: query.gc_time must not be negative, got %s", ErrInvalidDuration, c.Query.GCTime))
	}
	if c.Query.JanitorInterval < 0 {
		errs = append(errs, fmt.Errorf("%w: query.janitor_interval must not be negative, got %s", ErrInvalidDuration, c.Query.JanitorInterval))
	}
	if c.Health.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%w: health.timeout must be positive, got %s", ErrInvalidDuration, c.Health.Timeout))
	}

	errs = append(errs, c.Retry.Query.validate("retry.query"), c.Retry.Mutation.validate("retry.mutation"))

	switch c.Auth.Store {
	case TokenStoreMemory:
	case TokenStoreRedis:
		if c.Auth.Redis.Addr == "" {
			errs = append(errs, ErrMissingRedisAddr)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownTokenStore, c.Auth.Store))
	}

	obs := c.ObserveConfig()
	errs = append(errs, obs.Validate())

	return errors.Join(errs...)
}

func (p RetryPolicy) validate(name string) error {
	var errs []error
	if p.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("%w: %s.max_attempts must be at least 1, got %d", ErrInvalidRetry, name, p.MaxAttempts))
	}
	if p.InitialDelay < 0 || p.MaxDelay < 0 {
		errs = append(errs, fmt.Errorf("%w: %s delays must not be negative", ErrInvalidRetry, name))
	}
	if p.MaxDelay > 0 && p.InitialDelay > p.MaxDelay {
		errs = append(errs, fmt.Errorf("%w: %s.initial_delay exceeds max_delay", ErrInvalidRetry, name))
	}
	switch p.Strategy {
	case "", "exponential", "linear", "constant":
	default:
		errs = append(errs, fmt.Errorf("%w: %s.strategy %q", ErrInvalidRetry, name, p.Strategy))
	}
	return errors.Join(errs...)
}

// Apply overlays p on base, keeping base's error classification.
func (p RetryPolicy) Apply(base resilience.RetryConfig) resilience.RetryConfig {
	base.MaxAttempts = p.MaxAttempts
	base.InitialDelay = p.InitialDelay
	base.MaxDelay = p.MaxDelay
	if p.Multiplier > 0 {
		base.Multiplier = p.Multiplier
	}
	base.Strategy = resilience.ParseBackoffStrategy(p.Strategy)
	base.Jitter = p.Jitter
	return base
}

// QueryRetry returns the read retry policy.
func (c *Config) QueryRetry() resilience.RetryConfig {
	return c.Retry.Query.Apply(resilience.QueryRetryConfig())
}

// MutationRetry returns the write retry policy.
func (c *Config) MutationRetry() resilience.RetryConfig {
	return c.Retry.Mutation.Apply(resilience.MutationRetryConfig())
}

// CachePolicy returns the store policy.
func (c *Config) CachePolicy() cache.Policy {
	return cache.Policy{StaleTime: c.Query.StaleTime, GCTime: c.Query.GCTime}
}

// ObserveConfig returns the telemetry configuration.
func (c *Config) ObserveConfig() observe.Config {
	o := c.Observe
	return observe.Config{
		ServiceName: o.ServiceName,
		Version:     o.Version,
		Tracing: observe.TracingConfig{
			Enabled:   o.Tracing.Enabled,
			Exporter:  o.Tracing.Exporter,
			SamplePct: o.Tracing.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  o.Metrics.Enabled,
			Exporter: o.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: o.Logging,
			Level:   o.LogLevel,
		},
	}
}
