// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (token service, mailer) via constructors.
  - Fail Fast: A missing signing secret or SMTP parameter aborts startup.
*/
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"

	"github.com/taibuivan/warden/internal/platform/sec"
)

// # Configuration Schema

// Config holds all runtime configuration for the Warden API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Key-Value Store (Redis) backing the mail outbox
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Token signing
	JWTSecret                string        `env:"JWT_SECRET,required,notEmpty"`
	JWTAlgorithm             string        `env:"JWT_ALGORITHM"                envDefault:"HS256"`
	AccessTokenExpireMinutes int           `env:"ACCESS_TOKEN_EXPIRE_MINUTES"  envDefault:"30"`
	PasswordResetTTL         time.Duration `env:"PASSWORD_RESET_TTL"           envDefault:"30m"`

	// Credential hashing
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// Outbound email
	SMTP SMTPConfig

	// FrontendURL is the base of links embedded in emails.
	FrontendURL string `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`

	// Edge rate limiting. Zero RPS disables the limiter.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS"   envDefault:"0"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Cross-Origin Resource Sharing
	ExtraOrigins []string `env:"EXTRA_ORIGINS" envSeparator:","`
}

// SMTPConfig holds the parameters of the outbound mail relay.
type SMTPConfig struct {
	Host      string `env:"SMTP_HOST,required,notEmpty"`
	Port      int    `env:"SMTP_PORT,required,notEmpty"`
	User      string `env:"SMTP_USER,required,notEmpty"`
	Password  string `env:"SMTP_PASSWORD,required,notEmpty"`
	FromEmail string `env:"EMAILS_FROM_EMAIL,required,notEmpty"`
	FromName  string `env:"EMAILS_FROM_NAME" envDefault:"Warden"`
	TLS       bool   `env:"SMTP_TLS"         envDefault:"true"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field rules the env tags cannot express.
func (c *Config) Validate() error {
	var errs []error

	if !sec.SupportedAlgorithm(c.JWTAlgorithm) {
		errs = append(errs, fmt.Errorf("JWT_ALGORITHM %q is not supported", c.JWTAlgorithm))
	}
	if c.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive"))
	}
	if c.PasswordResetTTL <= 0 {
		errs = append(errs, fmt.Errorf("PASSWORD_RESET_TTL must be positive"))
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: invalid values: %w", errors.Join(errs...))
	}

	return nil
}

// AccessTokenTTL returns the configured lifetime of access tokens.
func (c *Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// RateLimitEnabled reports whether the edge limiter should be mounted.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the extra CORS origins permitted outside development.
func (c *Config) AllowedOrigins() []string {
	return c.ExtraOrigins
}
