// Package config handles loading and validating the panel's process
// configuration. Broker settings edited through the web page live in the
// store, not here.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} placeholders in config values.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ErrConfigFileNotFound is returned by Load when the specified config file does not exist.
var ErrConfigFileNotFound = errors.New("config file not found")

// Config is the top-level panel configuration.
type Config struct {
	Listen            string               `yaml:"listen"`
	DBPath            string               `yaml:"db_path"`
	LogLevel          string               `yaml:"log_level"`
	LogFormat         string               `yaml:"log_format"`
	RenderInterval    Duration             `yaml:"render_interval"`
	StaleAfter        Duration             `yaml:"stale_after"`
	RestartDelay      Duration             `yaml:"restart_delay"`
	MQTTRetryInterval Duration             `yaml:"mqtt_retry_interval"`
	Display           DisplayConfig        `yaml:"display"`
	Admin             AdminConfig          `yaml:"admin"`
	Notifications     []NotificationConfig `yaml:"notifications"`
	Alerts            AlertsConfig         `yaml:"alerts"`
}

// DisplayConfig selects the frame sinks. The panel geometry is fixed by the
// renderer.
type DisplayConfig struct {
	Terminal  bool `yaml:"terminal"`
	LogFrames bool `yaml:"log_frames"`
}

// AdminConfig protects the configuration surface with HTTP basic auth.
// An empty PasswordHash disables authentication.
type AdminConfig struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
}

// Enabled reports whether basic auth is configured.
func (a AdminConfig) Enabled() bool {
	return a.PasswordHash != ""
}

// NotificationConfig describes a notification target.
type NotificationConfig struct {
	Type    string            `yaml:"type"` // "ntfy" or "webhook"
	URL     string            `yaml:"url"`
	Topic   string            `yaml:"topic,omitempty"`   // ntfy only
	Method  string            `yaml:"method,omitempty"`  // webhook only
	Headers map[string]string `yaml:"headers,omitempty"` // webhook only
}

// AlertsConfig holds thresholds for each alert type.
type AlertsConfig struct {
	DiskFailed     *AlertDiskFailed     `yaml:"disk_failed,omitempty"`
	CPUHigh        *AlertCPUHigh        `yaml:"cpu_high,omitempty"`
	StorageFull    *AlertStorageFull    `yaml:"storage_full,omitempty"`
	TelemetryStale *AlertTelemetryStale `yaml:"telemetry_stale,omitempty"`
}

type AlertDiskFailed struct {
	Severity string   `yaml:"severity"`
	Cooldown Duration `yaml:"cooldown"`
}

type AlertCPUHigh struct {
	Threshold float64  `yaml:"threshold"`
	Duration  Duration `yaml:"duration"`
	Severity  string   `yaml:"severity"`
	Cooldown  Duration `yaml:"cooldown"`
}

type AlertStorageFull struct {
	Threshold float64  `yaml:"threshold"`
	Severity  string   `yaml:"severity"`
	Cooldown  Duration `yaml:"cooldown"`
}

type AlertTelemetryStale struct {
	MaxAge   Duration `yaml:"max_age"`
	Severity string   `yaml:"severity"`
	Cooldown Duration `yaml:"cooldown"`
}

// Duration wraps time.Duration with YAML string parsing support.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Load reads configuration from a YAML file. With no path the defaults and
// environment overrides are used. If a path is given and the file does not
// exist, ErrConfigFileNotFound is returned.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(expandEnvVars(data), cfg); err != nil {
				return nil, fmt.Errorf("parsing config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("log_format must be one of: text, json")
	}
	if c.RenderInterval.Duration <= 0 {
		return fmt.Errorf("render_interval must be > 0")
	}
	if c.StaleAfter.Duration < 0 {
		return fmt.Errorf("stale_after must be >= 0")
	}
	if c.RestartDelay.Duration < 0 {
		return fmt.Errorf("restart_delay must be >= 0")
	}
	if c.MQTTRetryInterval.Duration <= 0 {
		return fmt.Errorf("mqtt_retry_interval must be > 0")
	}

	if c.Admin.Enabled() {
		if c.Admin.Username == "" {
			return fmt.Errorf("admin: username is required when password_hash is set")
		}
		if _, err := bcrypt.Cost([]byte(c.Admin.PasswordHash)); err != nil {
			return fmt.Errorf("admin: password_hash is not a bcrypt hash: %w", err)
		}
	}

	for i, n := range c.Notifications {
		switch n.Type {
		case "ntfy":
			if n.URL == "" {
				return fmt.Errorf("notifications[%d]: url is required for ntfy", i)
			}
			if n.Topic == "" {
				return fmt.Errorf("notifications[%d]: topic is required for ntfy", i)
			}
		case "webhook":
			if n.URL == "" {
				return fmt.Errorf("notifications[%d]: url is required for webhook", i)
			}
		default:
			return fmt.Errorf("notifications[%d]: unknown type %q (expected ntfy or webhook)", i, n.Type)
		}
	}

	// Validate alert thresholds
	if a := c.Alerts.CPUHigh; a != nil {
		if a.Threshold <= 0 {
			return fmt.Errorf("alerts.cpu_high: threshold must be > 0")
		}
		if a.Duration.Duration < 0 {
			return fmt.Errorf("alerts.cpu_high: duration must be >= 0")
		}
	}
	if a := c.Alerts.StorageFull; a != nil {
		if a.Threshold <= 0 {
			return fmt.Errorf("alerts.storage_full: threshold must be > 0")
		}
	}
	if a := c.Alerts.TelemetryStale; a != nil {
		if a.MaxAge.Duration <= 0 {
			return fmt.Errorf("alerts.telemetry_stale: max_age must be > 0")
		}
	}

	return nil
}

func defaults() *Config {
	return &Config{
		Listen:            ":8080",
		DBPath:            "/data/naspanel.db",
		LogLevel:          "info",
		LogFormat:         "text",
		RenderInterval:    Duration{1 * time.Second},
		RestartDelay:      Duration{1 * time.Second},
		MQTTRetryInterval: Duration{5 * time.Second},
	}
}

// expandEnvVars replaces ${VAR_NAME} placeholders in raw YAML with the
// corresponding environment variable values. Unset variables are replaced
// with an empty string, which will then fail validation with a clear error.
func expandEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		key := string(match[2 : len(match)-1]) // strip ${ and }
		return []byte(os.Getenv(key))
	})
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("NASPANEL_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("NASPANEL_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("NASPANEL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("NASPANEL_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := strings.ToLower(os.Getenv("NASPANEL_TERMINAL")); v != "" {
		cfg.Display.Terminal = v == "true" || v == "1"
	}

	// Single ntfy target from env vars (only if no YAML notifications configured).
	if len(cfg.Notifications) == 0 {
		if ntfyURL := os.Getenv("NASPANEL_NTFY_URL"); ntfyURL != "" {
			topic := os.Getenv("NASPANEL_NTFY_TOPIC")
			if topic == "" {
				topic = "naspanel-alerts"
			}
			cfg.Notifications = append(cfg.Notifications, NotificationConfig{
				Type:  "ntfy",
				URL:   ntfyURL,
				Topic: topic,
			})
		}
	}
}
