package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/DevenGibbs/starter-restaurant-reservation/reservation"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Restaurant RestaurantConfig `yaml:"restaurant"`
	Auth       AuthConfig       `yaml:"auth"`
	Redis      RedisConfig      `yaml:"redis"`
	LogLevel   string           `yaml:"log_level"`
}

type ServerConfig struct {
	Port            string  `yaml:"port"`
	GinMode         string  `yaml:"gin_mode"`
	AllowedOrigin   string  `yaml:"allowed_origin"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // mysql, postgres or sqlite
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// RestaurantConfig describes opening hours in the restaurant's own time zone.
type RestaurantConfig struct {
	Timezone  string `yaml:"timezone"`
	ClosedDay string `yaml:"closed_day"`
	OpensAt   string `yaml:"opens_at"`
	ClosesAt  string `yaml:"closes_at"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
	// AdminEmail and AdminPassword seed the first admin account at startup.
	AdminEmail    string `yaml:"admin_email"`
	AdminPassword string `yaml:"admin_password"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// Load builds the configuration from, in increasing priority: defaults,
// the YAML file at path (optional), and environment variables (a .env
// file is loaded first when present).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			AllowedOrigin:   "http://localhost:3000",
			RateLimitPerSec: 20,
			RateLimitBurst:  40,
			CacheTTLSeconds: 0,
		},
		Database: DatabaseConfig{
			Driver:                 "sqlite",
			DSN:                    "reservations.db",
			MaxOpenConns:           10,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 30,
		},
		Restaurant: RestaurantConfig{
			Timezone:  "America/New_York",
			ClosedDay: "Tuesday",
			OpensAt:   "10:30",
			ClosesAt:  "21:30",
		},
		Auth: AuthConfig{
			TokenTTLHours: 24,
		},
		Redis: RedisConfig{
			Channel: "reservations:floor",
		},
		LogLevel: "info",
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Server.GinMode, "GIN_MODE")
	setString(&cfg.Server.AllowedOrigin, "ALLOWED_ORIGIN")
	setFloat(&cfg.Server.RateLimitPerSec, "RATE_LIMIT_PER_SEC")
	setInt(&cfg.Server.RateLimitBurst, "RATE_LIMIT_BURST")
	setInt(&cfg.Server.CacheTTLSeconds, "CACHE_TTL_SECONDS")

	setString(&cfg.Database.Driver, "DB_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_URL")
	setInt(&cfg.Database.MaxOpenConns, "DB_MAX_OPEN_CONNS")
	setInt(&cfg.Database.MaxIdleConns, "DB_MAX_IDLE_CONNS")

	setString(&cfg.Restaurant.Timezone, "RESTAURANT_TIMEZONE")
	setString(&cfg.Restaurant.ClosedDay, "RESTAURANT_CLOSED_DAY")
	setString(&cfg.Restaurant.OpensAt, "RESTAURANT_OPENS_AT")
	setString(&cfg.Restaurant.ClosesAt, "RESTAURANT_CLOSES_AT")

	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setInt(&cfg.Auth.TokenTTLHours, "JWT_TTL_HOURS")
	setString(&cfg.Auth.AdminEmail, "ADMIN_EMAIL")
	setString(&cfg.Auth.AdminPassword, "ADMIN_PASSWORD")

	setString(&cfg.Redis.Address, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setString(&cfg.Redis.Channel, "REDIS_CHANNEL")

	setString(&cfg.LogLevel, "LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func (c *Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if _, err := c.Rules(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}

// TokenTTL is the lifetime of issued staff tokens.
func (c *Config) TokenTTL() time.Duration {
	if c.Auth.TokenTTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// Rules turns the restaurant section into scheduling rules.
func (c *Config) Rules() (reservation.Rules, error) {
	loc, err := time.LoadLocation(c.Restaurant.Timezone)
	if err != nil {
		return reservation.Rules{}, fmt.Errorf("invalid restaurant timezone %q: %w", c.Restaurant.Timezone, err)
	}
	rules := reservation.DefaultRules(loc)

	if c.Restaurant.ClosedDay != "" {
		day, ok := parseWeekday(c.Restaurant.ClosedDay)
		if !ok {
			return reservation.Rules{}, fmt.Errorf("invalid closed day %q", c.Restaurant.ClosedDay)
		}
		rules.ClosedDay = day
	}
	if c.Restaurant.OpensAt != "" {
		if rules.OpensAt, err = reservation.ParseClock(c.Restaurant.OpensAt); err != nil {
			return reservation.Rules{}, err
		}
	}
	if c.Restaurant.ClosesAt != "" {
		if rules.ClosesAt, err = reservation.ParseClock(c.Restaurant.ClosesAt); err != nil {
			return reservation.Rules{}, err
		}
	}
	return rules, nil
}

func parseWeekday(s string) (time.Weekday, bool) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, true
		}
	}
	return 0, false
}
