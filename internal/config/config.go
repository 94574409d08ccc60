package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Logging     LoggingConfig   `yaml:"logging"`
	CORS        CORSConfig      `yaml:"cors"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Tracing     TracingConfig   `yaml:"tracing"`
	Environment string          `yaml:"environment" validate:"oneof=development test staging production"`
}

type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port" validate:"min=1,max=65535"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" validate:"gt=0"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url" validate:"required"`
	MaxConnections int32  `yaml:"max_connections" validate:"gte=0"`
	MinConnections int32  `yaml:"min_connections" validate:"gte=0"`
	MigrationsPath string `yaml:"migrations_path"`
	AutoMigrate    bool   `yaml:"auto_migrate"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error fatal panic disabled"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

type CORSConfig struct {
	AllowedOrigins  []string `yaml:"allowed_origins"`
	AllowAllOrigins bool     `yaml:"allow_all_origins"`
}

type RateLimitConfig struct {
	// PerMinute is the number of requests a single client may make per
	// minute. Zero disables limiting.
	PerMinute int `yaml:"per_minute" validate:"gte=0"`

	// TrustedProxyCIDRs lists proxies whose X-Forwarded-For and
	// X-Forwarded-Proto headers are believed.
	TrustedProxyCIDRs []string `yaml:"trusted_proxy_cidrs" validate:"dive,cidr"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter" validate:"omitempty,oneof=otlp stdout none"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate" validate:"gte=0,lte=1"`
}

// Defaults returns the configuration used when neither a file nor the
// environment sets a value.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			RequestTimeout: 10 * time.Second,
			MaxBodyBytes:   1 << 20,
		},
		Database: DatabaseConfig{
			MaxConnections: 25,
			MinConnections: 2,
			AutoMigrate:    false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		RateLimit: RateLimitConfig{
			PerMinute: 0,
		},
		Tracing: TracingConfig{
			Exporter:    "otlp",
			ServiceName: "events-api",
			SampleRate:  1.0,
		},
		Environment: "development",
	}
}

// Load builds the configuration from defaults and environment variables.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile overlays the YAML file at path (if any) on the defaults, then the
// environment on top of that.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Environment == "development" || cfg.Environment == "test" {
		if len(cfg.CORS.AllowedOrigins) == 0 {
			cfg.CORS.AllowAllOrigins = true
		}
	} else {
		cfg.CORS.AllowAllOrigins = false
		if len(cfg.CORS.AllowedOrigins) == 0 {
			return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS is required in %s", cfg.Environment)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Server.Host = getEnv("SERVER_HOST", cfg.Server.Host)
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Server.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", cfg.Server.RequestTimeout)
	cfg.Server.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(cfg.Server.MaxBodyBytes)))

	cfg.Database.URL = getEnv("DATABASE_URL", cfg.Database.URL)
	cfg.Database.MaxConnections = int32(getEnvInt("DATABASE_MAX_CONNECTIONS", int(cfg.Database.MaxConnections)))
	cfg.Database.MinConnections = int32(getEnvInt("DATABASE_MIN_CONNECTIONS", int(cfg.Database.MinConnections)))
	cfg.Database.MigrationsPath = getEnv("MIGRATIONS_PATH", cfg.Database.MigrationsPath)
	cfg.Database.AutoMigrate = getEnvBool("AUTO_MIGRATE", cfg.Database.AutoMigrate)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = splitList(origins)
	}

	cfg.RateLimit.PerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", cfg.RateLimit.PerMinute)
	if cidrs := os.Getenv("TRUSTED_PROXY_CIDRS"); cidrs != "" {
		cfg.RateLimit.TrustedProxyCIDRs = splitList(cidrs)
	}

	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = getEnv("TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.ServiceName = getEnv("TRACING_SERVICE_NAME", cfg.Tracing.ServiceName)
	cfg.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.OTLPEndpoint)
	cfg.Tracing.SampleRate = getEnvFloat("TRACING_SAMPLE_RATE", cfg.Tracing.SampleRate)

	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports every violation in one error.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvDuration accepts Go duration strings ("15s") or plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	if parsed, err := time.ParseDuration(value); err == nil {
		return parsed
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
