package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Server    ServerConfig    `toml:"server"`
	Store     StoreConfig     `toml:"store"`
	Cloud     CloudConfig     `toml:"cloud"`
	Metronome MetronomeConfig `toml:"metronome"`
	UI        UIConfig        `toml:"ui"`
}

// DatabaseConfig contains the local SQLite settings backing the client's key-value storage.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the REST backend started by `stagelist serve`.
type ServerConfig struct {
	Host           string        `toml:"host"`
	Port           int           `toml:"port"`
	JWTSecret      string        `toml:"jwt_secret"`
	AccessTTL      time.Duration `toml:"access_ttl"`
	RefreshTTL     time.Duration `toml:"refresh_ttl"`
	AllowedOrigins []string      `toml:"allowed_origins"`
	MaxBodyBytes   int64         `toml:"max_body_bytes"`
}

// StoreConfig selects and configures the backend key-value store driver.
type StoreConfig struct {
	Driver        string   `toml:"driver"` // memory, sqlite, postgres, redis, s3
	SQLitePath    string   `toml:"sqlite_path"`
	PostgresDSN   string   `toml:"postgres_dsn"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	S3            S3Config `toml:"s3"`
}

// S3Config contains object storage settings for the s3 store driver.
type S3Config struct {
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
}

// CloudConfig contains client-side settings for mirroring to the backend.
type CloudConfig struct {
	Enabled       bool          `toml:"enabled"`
	BaseURL       string        `toml:"base_url"`
	RateLimit     float64       `toml:"rate_limit"`
	SyncDelay     time.Duration `toml:"sync_delay"`
	HealthTimeout time.Duration `toml:"health_timeout"`
}

// MetronomeConfig contains playback defaults.
type MetronomeConfig struct {
	Sound      string  `toml:"sound"`
	Volume     float64 `toml:"volume"`
	SampleRate int     `toml:"sample_rate"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	LogFile string `toml:"log_file"`
}

// Addr returns the host:port pair the backend listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Validate reports configuration values that would make the application misbehave.
func (c *Config) Validate() error {
	var problems []string

	if c.Metronome.Volume < 0 || c.Metronome.Volume > 1 {
		problems = append(problems, "metronome.volume must be between 0 and 1")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, "server.port out of range")
	}
	switch c.Store.Driver {
	case "", "memory", "sqlite", "postgres", "redis", "s3":
	default:
		problems = append(problems, fmt.Sprintf("unknown store driver %q", c.Store.Driver))
	}
	if c.Cloud.Enabled && c.Cloud.BaseURL == "" {
		problems = append(problems, "cloud.base_url is required when cloud sync is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// LoadConfigOrDefault loads the config at path when it exists and falls back to [DefaultConfig] otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	config, err := LoadConfig(path)
	if errors.Is(err, ErrMissingConfig) {
		return DefaultConfig(), nil
	}
	return config, err
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

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
