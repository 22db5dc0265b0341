package app

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	Port              int           `envconfig:"PORT" default:"3000" validate:"gt=0,lt=65536"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"45s" validate:"gtfield=AppRequestTimeout,gtfield=SupabaseHTTPTimeout,gtfield=DBConnectTimeout"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"30s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	SupabaseURL         string        `envconfig:"SUPABASE_URL" validate:"required"`
	SupabaseServiceKey  string        `envconfig:"SUPABASE_SERVICE_ROLE_KEY" validate:"required"`
	SupabaseJWTSecret   string        `envconfig:"SUPABASE_JWT_SECRET" validate:"required"`
	SupabaseHTTPTimeout time.Duration `envconfig:"SUPABASE_HTTP_TIMEOUT" default:"30s" validate:"gt=0"`
	AdminAllowedRoles   []string      `envconfig:"ADMIN_ALLOWED_ROLES" default:"service_role" validate:"min=1,dive,required"`

	DatabaseURL      string        `envconfig:"DATABASE_URL" validate:"required"`
	DBMaxConns       int32         `envconfig:"DB_MAX_CONNS" default:"10" validate:"gt=0"`
	DBIdleTimeout    time.Duration `envconfig:"DB_IDLE_TIMEOUT" default:"20s" validate:"gt=0"`
	DBConnectTimeout time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"10s" validate:"gt=0"`

	RateLimitPerMinute int `envconfig:"RATE_LIMIT_PER_MINUTE" default:"0" validate:"gte=0"`

	RedisAddr      string        `envconfig:"REDIS_ADDR"`
	ProbeCron      string        `envconfig:"PROBE_CRON" default:"*/5 * * * *"`
	ProbeStatusTTL time.Duration `envconfig:"PROBE_STATUS_TTL" default:"15m"`

	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR" default:":9091"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that every required setting is present.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var missing []string
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range fieldErrs {
				missing = append(missing, fieldErr.Field())
			}
			return fmt.Errorf("app: invalid config: %s", strings.Join(missing, ", "))
		}
		return fmt.Errorf("app: invalid config: %w", err)
	}
	return nil
}

// Addr returns the listen address derived from PORT.
func (c *Config) Addr() string {
	return net.JoinHostPort("", strconv.Itoa(c.Port))
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// JobsEnabled reports whether a Redis backend is configured for background jobs.
func (c *Config) JobsEnabled() bool {
	return c != nil && c.RedisAddr != ""
}
