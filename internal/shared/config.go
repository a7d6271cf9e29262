package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvUsername = "BGMI_USERNAME"
	EnvAPIKey   = "BGMI_API_KEY"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Bangumi     BangumiConfig     `toml:"bangumi"`
	Credentials CredentialsConfig `toml:"credentials"`
	Sync        SyncConfig        `toml:"sync"`
	Database    DatabaseConfig    `toml:"database"`
	Metrics     MetricsConfig     `toml:"metrics"`
}

// BangumiConfig contains the site and API endpoints.
type BangumiConfig struct {
	WebURL    string   `toml:"web_url"`
	APIURL    string   `toml:"api_url"`
	UserAgent string   `toml:"user_agent"`
	Timeout   Duration `toml:"timeout"`
}

// CredentialsConfig contains the account whose wish list is synced.
type CredentialsConfig struct {
	Username string `toml:"username"`
	APIKey   string `toml:"api_key"`
}

// SyncConfig tunes the pagination loop.
type SyncConfig struct {
	Timezone          string  `toml:"timezone"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	MaxPages          int     `toml:"max_pages"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// MetricsConfig controls where run metrics are written.
type MetricsConfig struct {
	Textfile string `toml:"textfile"`
}

// Duration wraps [time.Duration] so it can be written as "10s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays credentials from BGMI_USERNAME and BGMI_API_KEY.
//
// Unset or empty variables leave the file values in place.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvUsername); v != "" {
		c.Credentials.Username = v
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Credentials.APIKey = v
	}
}

// Validate reports settings a sync cannot run without.
//
// The API key is not checked: dry runs never send it.
func (c *Config) Validate() error {
	if c.Credentials.Username == "" {
		return fmt.Errorf("%w: set %s", ErrMissingCredentials, EnvUsername)
	}
	if c.Bangumi.WebURL == "" || c.Bangumi.APIURL == "" {
		return fmt.Errorf("%w: bangumi.web_url and bangumi.api_url are required", ErrInvalidConfig)
	}
	if c.Sync.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: sync.requests_per_second must not be negative", ErrInvalidConfig)
	}
	if c.Sync.MaxPages < 0 {
		return fmt.Errorf("%w: sync.max_pages must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves sync.timezone, defaulting to [time.Local].
func (c *Config) Location() (*time.Location, error) {
	if c.Sync.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Sync.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, c.Sync.Timezone, err)
	}
	return loc, nil
}
