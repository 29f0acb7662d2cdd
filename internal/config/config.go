package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/BookstoreGo/internal/domain"
	pkgconfig "github.com/utafrali/BookstoreGo/pkg/config"
	"github.com/utafrali/BookstoreGo/pkg/database"
	"github.com/utafrali/BookstoreGo/pkg/middleware"
	"github.com/utafrali/BookstoreGo/pkg/tracing"
)

// ServiceName identifies this service in logs, metrics, and traces.
const ServiceName = "bookstore"

// Config holds all configuration for the bookstore service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"bookstore"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"bookstore_secret"`
	PostgresDB   string `env:"POSTGRES_DB_NAME" envDefault:"bookstore_db"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	PostgresMaxConns int32 `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	PostgresMinConns int32 `env:"POSTGRES_MIN_CONNS" envDefault:"2"`

	// Redis (cart storage)
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CartTTL       time.Duration `env:"CART_TTL" envDefault:"720h"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	CORSMaxAge         int      `env:"CORS_MAX_AGE" envDefault:"3600"`

	// Pricing. Defaults preserve the original storefront behavior: 8% tax,
	// free shipping on subtotals over $50, $5.99 flat shipping, WELCOME10
	// for 10% off.
	TaxRate               float64  `env:"TAX_RATE" envDefault:"0.08"`
	FreeShippingThreshold int64    `env:"FREE_SHIPPING_THRESHOLD_CENTS" envDefault:"5000"`
	ShippingFlat          int64    `env:"SHIPPING_FLAT_CENTS" envDefault:"599"`
	CouponCodes           []string `env:"COUPON_CODES" envDefault:"WELCOME10:10" envSeparator:","`

	// Tracing
	TracingEnabled    bool    `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint   string  `env:"TRACING_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TracingSampleRate float64 `env:"TRACING_SAMPLE_RATE" envDefault:"1.0"`

	SlowQueryThreshold time.Duration `env:"SLOW_QUERY_THRESHOLD" envDefault:"200ms"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load bookstore config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.TaxRate < 0 || c.TaxRate > 1 {
		return fmt.Errorf("invalid tax rate: %f", c.TaxRate)
	}
	if c.ShippingFlat < 0 {
		return fmt.Errorf("invalid shipping cost: %d", c.ShippingFlat)
	}
	if c.FreeShippingThreshold < 0 {
		return fmt.Errorf("invalid free shipping threshold: %d", c.FreeShippingThreshold)
	}
	if _, err := c.coupons(); err != nil {
		return err
	}
	return nil
}

// Postgres returns the pool configuration for pkg/database.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.PostgresMaxConns,
		MinConns:        c.PostgresMinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Redis returns the Redis configuration for pkg/database.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// Tracing returns the OpenTelemetry configuration.
func (c *Config) Tracing() tracing.Config {
	return tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "1.0.0",
		Environment:    c.Environment,
		OTLPEndpoint:   c.TracingEndpoint,
		SampleRate:     c.TracingSampleRate,
		Enabled:        c.TracingEnabled,
	}
}

// CORS returns the CORS middleware configuration.
func (c *Config) CORS() middleware.CORSConfig {
	return middleware.CORSConfig{
		AllowedOrigins: c.CORSAllowedOrigins,
		ExposedHeaders: []string{"X-Correlation-ID"},
		MaxAge:         c.CORSMaxAge,
		Environment:    c.Environment,
	}
}

// Pricing builds the pricing rules from configuration.
func (c *Config) Pricing() domain.PricingConfig {
	coupons, _ := c.coupons() // validated at Load time
	return domain.PricingConfig{
		TaxRate:               decimal.NewFromFloat(c.TaxRate),
		FreeShippingThreshold: c.FreeShippingThreshold,
		ShippingFlat:          c.ShippingFlat,
		Coupons:               coupons,
	}
}

// coupons parses CODE:PERCENT pairs from CouponCodes.
func (c *Config) coupons() (map[string]int, error) {
	coupons := make(map[string]int, len(c.CouponCodes))
	for _, entry := range c.CouponCodes {
		if entry == "" {
			continue
		}
		code, percentStr, found := strings.Cut(entry, ":")
		if !found || code == "" {
			return nil, fmt.Errorf("invalid coupon entry %q (want CODE:PERCENT)", entry)
		}
		percent, err := strconv.Atoi(percentStr)
		if err != nil {
			return nil, fmt.Errorf("invalid coupon entry %q (want CODE:PERCENT)", entry)
		}
		if percent < 0 || percent > 100 {
			return nil, fmt.Errorf("coupon %s: percent %d out of range", code, percent)
		}
		coupons[code] = percent
	}
	return coupons, nil
}
