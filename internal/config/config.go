package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Calendar  CalendarConfig  `yaml:"calendar"`
	Access    AccessConfig    `yaml:"access"`
	Widget    WidgetConfig    `yaml:"widget"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// CalendarConfig controls day and week boundaries. Locale only decides
// which weekday starts the week.
type CalendarConfig struct {
	Locale   string `yaml:"locale"`
	Timezone string `yaml:"timezone"`
}

// AccessConfig sets the static entitlement. When Unlocked is false the
// entitlements table is still consulted.
type AccessConfig struct {
	Unlocked      bool `yaml:"unlocked"`
	LookbackWeeks int  `yaml:"lookback_weeks"`
}

type WidgetConfig struct {
	StatePath string        `yaml:"state_path"`
	Interval  time.Duration `yaml:"interval"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Location loads the configured timezone, defaulting to the process's
// local zone.
func (c CalendarConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func defaults() *Config {
	return &Config{
		Tailscale: TailscaleConfig{Hostname: "workpulse"},
		Calendar:  CalendarConfig{Locale: "en-US"},
		Access:    AccessConfig{LookbackWeeks: 1},
		Widget: WidgetConfig{
			StatePath: "~/.workpulse/widget.db",
			Interval:  5 * time.Minute,
		},
	}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix WORKPULSE_ and underscore-separated paths:
//
//	WORKPULSE_SERVER_HOST, WORKPULSE_SERVER_PORT,
//	WORKPULSE_DB_HOST, WORKPULSE_DB_PORT, WORKPULSE_DB_NAME,
//	WORKPULSE_DB_USER, WORKPULSE_DB_PASSWORD, WORKPULSE_DB_SSLMODE,
//	WORKPULSE_AUTH_API_KEY, WORKPULSE_TAILSCALE_ENABLED,
//	WORKPULSE_CALENDAR_LOCALE, WORKPULSE_CALENDAR_TIMEZONE,
//	WORKPULSE_ACCESS_UNLOCKED, WORKPULSE_WIDGET_STATE_PATH
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	cfg.Widget.StatePath, err = expandHome(cfg.Widget.StatePath)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WORKPULSE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("WORKPULSE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("WORKPULSE_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("WORKPULSE_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("WORKPULSE_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("WORKPULSE_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("WORKPULSE_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("WORKPULSE_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("WORKPULSE_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("WORKPULSE_TAILSCALE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Tailscale.Enabled = b
		}
	}
	if v := os.Getenv("WORKPULSE_CALENDAR_LOCALE"); v != "" {
		cfg.Calendar.Locale = v
	}
	if v := os.Getenv("WORKPULSE_CALENDAR_TIMEZONE"); v != "" {
		cfg.Calendar.Timezone = v
	}
	if v := os.Getenv("WORKPULSE_ACCESS_UNLOCKED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Access.Unlocked = b
		}
	}
	if v := os.Getenv("WORKPULSE_WIDGET_STATE_PATH"); v != "" {
		cfg.Widget.StatePath = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	if _, err := c.Calendar.Location(); err != nil {
		return fmt.Errorf("calendar.timezone: %w", err)
	}
	if c.Access.LookbackWeeks < 0 {
		return fmt.Errorf("access.lookback_weeks must not be negative")
	}
	if c.Widget.Interval <= 0 {
		return fmt.Errorf("widget.interval must be positive")
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
