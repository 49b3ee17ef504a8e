package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
}

// MQTT contains broker session settings for the subscriber and publisher.
type MQTT struct {
	Broker         string `toml:"broker"`
	Topic          string `toml:"topic"`
	QoS            int    `toml:"qos"`
	ClientID       string `toml:"client_id"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	ConnectTimeout int    `toml:"connect_timeout"`
}

// Indicator selects and configures the status light driver.
type Indicator struct {
	Driver    string `toml:"driver"`
	GPIOPin   int    `toml:"gpio_pin"`
	SysfsRoot string `toml:"sysfs_root"`
	ActiveLow bool   `toml:"active_low"`
}

// Workflow contains worker poll intervals in milliseconds.
type Workflow struct {
	ConsumerPollMS int `toml:"consumer_poll_ms"`
	SignalPollMS   int `toml:"signal_poll_ms"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for blinkcode.
//
// Configuration sections by subsystem:
//   - Paths: state directory for lock, socket, pid, and log files
//   - MQTT: broker session used to receive status payloads
//   - Indicator: status light driver
//   - Workflow: consumer and signal worker poll intervals
//   - Notifications: ntfy push on status changes
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	MQTT          MQTT          `toml:"mqtt"`
	Indicator     Indicator     `toml:"indicator"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("blinkcode.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.StateDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.StateDir, err)
	}
	return nil
}

// LockPath is the flock file guarding single-instance execution.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "blinkcode.lock")
}

// SocketPath is the IPC socket exposed by the daemon.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.StateDir, "blinkcode.sock")
}

// PIDPath is the pid file written by the foreground daemon.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "blinkcode.pid")
}

// LogPath is the daemon log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.StateDir, "blinkcode.log")
}

// ConsumerPollInterval returns the consumer worker delay between mailbox checks.
func (c *Config) ConsumerPollInterval() time.Duration {
	return time.Duration(c.Workflow.ConsumerPollMS) * time.Millisecond
}

// SignalPollInterval returns the signal worker delay between idle polls.
func (c *Config) SignalPollInterval() time.Duration {
	return time.Duration(c.Workflow.SignalPollMS) * time.Millisecond
}

// ConnectTimeout returns the broker connect timeout.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.MQTT.ConnectTimeout) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
