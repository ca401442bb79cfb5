// Package config maps environment variables onto the server settings.
//
// Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mmynk/groupshare/internal/lifecycle"
)

// Config holds all runtime configuration for the server and reaper.
type Config struct {
	// Server settings
	ServerPort int    `env:"SERVER_PORT" envDefault:"8080"`
	DBPath     string `env:"DB_PATH"     envDefault:"./data/groups.db"`
	LogLevel   string `env:"LOG_LEVEL"   envDefault:"info"`

	// Session tokens. Only the server and the token command need the secret;
	// they call RequireAuth after loading.
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	// Lifecycle rules
	MemberGracePeriod time.Duration `env:"GROUP_MEMBER_GRACE_PERIOD" envDefault:"720h"`
	GroupDeleteGrace  time.Duration `env:"GROUP_DELETE_GRACE"        envDefault:"336h"`
	MaxMembers        int           `env:"GROUP_MAX_MEMBERS"         envDefault:"50"`
	ReminderDays      []int         `env:"GROUP_REMINDER_DAYS"       envDefault:"60,30,7,1" envSeparator:","`

	// Reaping sweeps
	ReaperEnabled  bool          `env:"REAPER_ENABLED"   envDefault:"true"`
	ReaperInterval time.Duration `env:"REAPER_INTERVAL"  envDefault:"1h"`
	RedisURL       string        `env:"REDIS_URL"`
	ReaperLeaseTTL time.Duration `env:"REAPER_LEASE_TTL" envDefault:"5m"`
}

// Load parses the process environment into a Config and validates it.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom is Load over an explicit environment instead of the process one.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT %d out of range", c.ServerPort))
	}
	if c.MemberGracePeriod < 0 {
		errs = append(errs, errors.New("GROUP_MEMBER_GRACE_PERIOD must not be negative"))
	}
	if c.GroupDeleteGrace <= 0 {
		errs = append(errs, errors.New("GROUP_DELETE_GRACE must be positive"))
	}
	if c.MaxMembers < 0 {
		errs = append(errs, errors.New("GROUP_MAX_MEMBERS must not be negative"))
	}
	for _, d := range c.ReminderDays {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("GROUP_REMINDER_DAYS contains %d; days must be positive", d))
		}
	}
	if c.ReaperEnabled && c.ReaperInterval <= 0 {
		errs = append(errs, errors.New("REAPER_INTERVAL must be positive"))
	}
	if c.RedisURL != "" && c.ReaperLeaseTTL <= 0 {
		errs = append(errs, errors.New("REAPER_LEASE_TTL must be positive"))
	}
	return errors.Join(errs...)
}

// RequireAuth reports whether the token settings are usable.
func (c *Config) RequireAuth() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Settings returns the lifecycle rules.
func (c *Config) Settings() lifecycle.Settings {
	return lifecycle.Settings{
		MemberGracePeriod:  c.MemberGracePeriod,
		GroupDeleteGrace:   c.GroupDeleteGrace,
		MaxMembersPerGroup: c.MaxMembers,
		ReminderDays:       c.ReminderDays,
	}
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}
