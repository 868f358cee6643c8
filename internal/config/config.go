// AngelaMos | 2026
// config.go

package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App          AppConfig          `koanf:"app"`
	Server       ServerConfig       `koanf:"server"`
	Database     DatabaseConfig     `koanf:"database"`
	Redis        RedisConfig        `koanf:"redis"`
	JWT          JWTConfig          `koanf:"jwt"`
	RateLimit    RateLimitConfig    `koanf:"rate_limit"`
	CORS         CORSConfig         `koanf:"cors"`
	Log          LogConfig          `koanf:"log"`
	Otel         OtelConfig         `koanf:"otel"`
	Metrics      MetricsConfig      `koanf:"metrics"`
	Segmentation SegmentationConfig `koanf:"segmentation"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`

	// StatementTimeout is set per connection so one slow history read cannot
	// hold a worker forever. Zero leaves the server default.
	StatementTimeout time.Duration `koanf:"statement_timeout"`
	ApplicationName  string        `koanf:"application_name"`
}

type RedisConfig struct {
	URL          string        `koanf:"url"`
	PoolSize     int           `koanf:"pool_size"`
	MinIdleConns int           `koanf:"min_idle_conns"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
}

// JWTConfig configures token verification. The private key is only needed by
// processes that mint tokens (cmd/token).
type JWTConfig struct {
	PrivateKeyPath    string        `koanf:"private_key_path"`
	PublicKeyPath     string        `koanf:"public_key_path"`
	AccessTokenExpire time.Duration `koanf:"access_token_expire"`
	Issuer            string        `koanf:"issuer"`
	Audience          string        `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests        int `koanf:"requests"`
	Burst           int `koanf:"burst"`
	TriggerRequests int `koanf:"trigger_requests"`
	TriggerBurst    int `koanf:"trigger_burst"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

type SegmentationConfig struct {
	// Workers bounds how many subscribers are segmented concurrently.
	Workers int `koanf:"workers"`
	// RecencyWindow is the trailing window counted as recent engagement.
	RecencyWindow time.Duration `koanf:"recency_window"`
	// Interval between scheduled runs in cmd/worker. Zero disables scheduling.
	Interval         time.Duration `koanf:"interval"`
	LockTTL          time.Duration `koanf:"lock_ttl"`
	BreakerThreshold uint32        `koanf:"breaker_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

var (
	cfg  *Config
	once sync.Once
)

func Load(configPath string) (*Config, error) {
	var loadErr error

	once.Do(func() {
		cfg, loadErr = load(configPath)
	})

	if loadErr != nil {
		return nil, loadErr
	}

	return cfg, nil
}

func Get() *Config {
	if cfg == nil {
		panic("config not loaded: call Load() first")
	}
	return cfg
}

func load(configPath string) (*Config, error) {
	loaded, err := read(configPath)
	if err != nil {
		return nil, err
	}

	if err := validate(loaded); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return loaded, nil
}

// LoadJWT reads only the token settings, for tools that never touch the
// database or redis.
func LoadJWT(configPath string) (JWTConfig, error) {
	loaded, err := read(configPath)
	if err != nil {
		return JWTConfig{}, err
	}

	if loaded.JWT.PrivateKeyPath == "" {
		return JWTConfig{}, fmt.Errorf("JWT_PRIVATE_KEY_PATH is required to mint tokens")
	}

	return loaded.JWT, nil
}

func read(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKeyReplacer), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	loaded := &Config{}
	if err := k.Unmarshal("", loaded); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return loaded, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"app.name":        "Fan Segmenter",
		"app.version":     "1.0.0",
		"app.environment": "development",

		"server.host":             "0.0.0.0",
		"server.port":             8080,
		"server.read_timeout":     "30s",
		"server.write_timeout":    "5m",
		"server.idle_timeout":     "120s",
		"server.shutdown_timeout": "15s",

		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",
		"database.statement_timeout":  "60s",
		"database.application_name":   "fan-segmenter",

		"redis.pool_size":      10,
		"redis.min_idle_conns": 5,
		"redis.dial_timeout":   "5s",
		"redis.read_timeout":   "3s",

		"jwt.access_token_expire": "15m",
		"jwt.issuer":              "fan-segmenter",
		"jwt.audience":            "fan-segmenter-api",
		"jwt.public_key_path":     "keys/public.pem",

		"rate_limit.requests":         100,
		"rate_limit.burst":            20,
		"rate_limit.trigger_requests": 6,
		"rate_limit.trigger_burst":    2,

		"cors.allowed_origins": []string{"*"},
		"cors.allowed_methods": []string{
			"GET",
			"POST",
			"OPTIONS",
		},
		"cors.allowed_headers": []string{
			"Authorization",
			"X-Client-Info",
			"Apikey",
			"Content-Type",
			"X-Request-ID",
		},
		"cors.allow_credentials": false,
		"cors.max_age":           300,

		"log.level":  "info",
		"log.format": "json",

		"otel.enabled":      false,
		"otel.insecure":     true,
		"otel.sample_rate":  0.1,
		"otel.service_name": "fan-segmenter",

		"metrics.enabled": true,
		"metrics.path":    "/metrics",

		"segmentation.workers":           8,
		"segmentation.recency_window":    "720h",
		"segmentation.interval":          "0s",
		"segmentation.lock_ttl":          "15m",
		"segmentation.breaker_threshold": 5,
		"segmentation.breaker_timeout":   "30s",
	}

	for key, value := range defaults {
		if err := k.Set(key, value); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

var envKeyMap = map[string]string{
	"DATABASE_URL":                   "database.url",
	"REDIS_URL":                      "redis.url",
	"DATABASE_STATEMENT_TIMEOUT":     "database.statement_timeout",
	"ENVIRONMENT":                    "app.environment",
	"HOST":                           "server.host",
	"PORT":                           "server.port",
	"LOG_LEVEL":                      "log.level",
	"LOG_FORMAT":                     "log.format",
	"JWT_PRIVATE_KEY_PATH":           "jwt.private_key_path",
	"JWT_PUBLIC_KEY_PATH":            "jwt.public_key_path",
	"JWT_ACCESS_TOKEN_EXPIRE":        "jwt.access_token_expire",
	"JWT_ISSUER":                     "jwt.issuer",
	"JWT_AUDIENCE":                   "jwt.audience",
	"RATE_LIMIT_REQUESTS":            "rate_limit.requests",
	"RATE_LIMIT_BURST":               "rate_limit.burst",
	"OTEL_ENDPOINT":                  "otel.endpoint",
	"OTEL_EXPORTER_OTLP_ENDPOINT":    "otel.endpoint",
	"OTEL_SERVICE_NAME":              "otel.service_name",
	"OTEL_ENABLED":                   "otel.enabled",
	"OTEL_INSECURE":                  "otel.insecure",
	"OTEL_SAMPLE_RATE":               "otel.sample_rate",
	"METRICS_ENABLED":                "metrics.enabled",
	"SEGMENTATION_WORKERS":           "segmentation.workers",
	"SEGMENTATION_RECENCY_WINDOW":    "segmentation.recency_window",
	"SEGMENTATION_INTERVAL":          "segmentation.interval",
	"SEGMENTATION_LOCK_TTL":          "segmentation.lock_ttl",
	"SEGMENTATION_BREAKER_THRESHOLD": "segmentation.breaker_threshold",
	"SEGMENTATION_BREAKER_TIMEOUT":   "segmentation.breaker_timeout",
}

func envKeyReplacer(s string) string {
	if mapped, ok := envKeyMap[s]; ok {
		return mapped
	}
	return ""
}

func validate(c *Config) error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.JWT.PublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is required")
	}

	if c.CORS.AllowCredentials {
		for _, origin := range c.CORS.AllowedOrigins {
			if origin == "*" {
				return fmt.Errorf(
					"CORS wildcard '*' cannot be used with AllowCredentials",
				)
			}
		}
	}

	if c.App.Environment == "production" {
		if c.Otel.Enabled && c.Otel.Insecure {
			return fmt.Errorf("OTEL_INSECURE must be false in production")
		}
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server.read_timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}

	if c.Segmentation.Workers < 1 {
		return fmt.Errorf("segmentation.workers must be at least 1")
	}

	if c.Segmentation.RecencyWindow <= 0 {
		return fmt.Errorf("segmentation.recency_window must be positive")
	}

	if c.Segmentation.Interval < 0 {
		return fmt.Errorf("segmentation.interval must not be negative")
	}

	if c.Segmentation.LockTTL <= 0 {
		return fmt.Errorf("segmentation.lock_ttl must be positive")
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
