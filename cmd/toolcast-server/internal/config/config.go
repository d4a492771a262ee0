// Package config provides configuration management for the toolcast server.
// Settings come from defaults, an optional YAML file named by TOOLCAST_CONFIG,
// and environment variables, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// configPathEnv names the optional YAML overlay file.
const configPathEnv = "TOOLCAST_CONFIG"

// Config holds all configuration for the toolcast server.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Relay    RelayConfig    `yaml:"relay"`
	Site     SiteConfig     `yaml:"site"`
	LogLevel string         `yaml:"logLevel"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // memory, mysql, postgres, sqlite3
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	Prefix   string `yaml:"prefix"` // Table prefix (default: "toolcast_")
}

// DispatchConfig holds notification fan-out configuration.
type DispatchConfig struct {
	BatchSize           int  `yaml:"batchSize"`
	InterBatchDelayMS   int  `yaml:"interBatchDelayMs"`
	EventBuffer         int  `yaml:"eventBuffer"` // hand-off channel size; the bus queue itself is unbounded
	EnableNotifications bool `yaml:"enableNotifications"`
	ForwardOnlyStatus   bool `yaml:"forwardOnlyStatus"`
}

// RelayConfig holds the outbound mail relay. An empty endpoint logs messages instead of sending them.
type RelayConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Sender    string `yaml:"sender"`
	Token     string `yaml:"token"`
	TimeoutMS int    `yaml:"timeoutMs"`
}

// SiteConfig holds values rendered into notifications.
type SiteConfig struct {
	Name           string `yaml:"name"`
	PublicURL      string `yaml:"publicUrl"`
	UnsubscribeURL string `yaml:"unsubscribeUrl"`
}

// InterBatchDelay returns the pause between dispatch batches.
func (d DispatchConfig) InterBatchDelay() time.Duration {
	return time.Duration(d.InterBatchDelayMS) * time.Millisecond
}

// Timeout returns the per-request relay timeout.
func (r RelayConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Driver:   "sqlite3",
			Host:     "localhost",
			Port:     3306,
			User:     "toolcast",
			Database: "toolcast.db",
			Prefix:   "toolcast_",
		},
		Dispatch: DispatchConfig{
			BatchSize:           50,
			InterBatchDelayMS:   1000,
			EventBuffer:         256,
			EnableNotifications: true,
		},
		Relay: RelayConfig{
			Sender:    "newsletter@toolcast.local",
			TimeoutMS: 10000,
		},
		Site: SiteConfig{
			Name: "Toolcast",
		},
		LogLevel: "info",
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// TOOLCAST_CONFIG (if set), then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv(configPathEnv); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeFile overlays the non-zero values of a YAML file onto c.
func (c *Config) mergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	// Decoding into the populated struct keeps every key the file omits.
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvInt("SERVER_PORT", c.Server.Port)

	c.Database.Driver = getEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.Prefix = getEnv("DB_PREFIX", c.Database.Prefix)

	c.Dispatch.BatchSize = getEnvInt("TOOLCAST_BATCH_SIZE", c.Dispatch.BatchSize)
	c.Dispatch.InterBatchDelayMS = getEnvInt("TOOLCAST_INTER_BATCH_DELAY_MS", c.Dispatch.InterBatchDelayMS)
	c.Dispatch.EventBuffer = getEnvInt("TOOLCAST_EVENT_BUFFER", c.Dispatch.EventBuffer)
	c.Dispatch.EnableNotifications = getEnvBool("TOOLCAST_ENABLE_NOTIFICATIONS", c.Dispatch.EnableNotifications)
	c.Dispatch.ForwardOnlyStatus = getEnvBool("TOOLCAST_FORWARD_ONLY_STATUS", c.Dispatch.ForwardOnlyStatus)

	c.Relay.Endpoint = getEnv("TOOLCAST_RELAY_ENDPOINT", c.Relay.Endpoint)
	c.Relay.Sender = getEnv("TOOLCAST_RELAY_SENDER", c.Relay.Sender)
	c.Relay.Token = getEnv("TOOLCAST_RELAY_TOKEN", c.Relay.Token)
	c.Relay.TimeoutMS = getEnvInt("TOOLCAST_RELAY_TIMEOUT_MS", c.Relay.TimeoutMS)

	c.Site.Name = getEnv("TOOLCAST_SITE_NAME", c.Site.Name)
	c.Site.PublicURL = getEnv("TOOLCAST_PUBLIC_URL", c.Site.PublicURL)
	c.Site.UnsubscribeURL = getEnv("TOOLCAST_UNSUBSCRIBE_URL", c.Site.UnsubscribeURL)

	c.LogLevel = getEnv("TOOLCAST_LOG_LEVEL", c.LogLevel)
}

// Validate checks the combined configuration.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "memory", "sqlite3":
	case "mysql", "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD environment variable is required for %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (memory, sqlite3, mysql, postgres)", c.Database.Driver)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Dispatch.BatchSize <= 0 {
		return fmt.Errorf("dispatch batch size must be positive, got %d", c.Dispatch.BatchSize)
	}
	if c.Dispatch.InterBatchDelayMS < 0 {
		return fmt.Errorf("dispatch inter-batch delay cannot be negative, got %dms", c.Dispatch.InterBatchDelayMS)
	}
	return nil
}

// UsesSQL reports whether the configured driver needs a database/sql connection.
func (c *DatabaseConfig) UsesSQL() bool {
	return strings.ToLower(c.Driver) != "memory"
}

// GetDSN returns the database connection string based on driver.
func (c *DatabaseConfig) GetDSN() string {
	switch strings.ToLower(c.Driver) {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Database)
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.Host, c.Port, c.User, c.Password, c.Database)
	case "sqlite3":
		return c.Database // SQLite uses file path as DSN
	default:
		return ""
	}
}

// getEnv retrieves environment variable or returns default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves environment variable as boolean or returns default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
