package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "naspanel.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NASPANEL_LISTEN", "NASPANEL_DB_PATH", "NASPANEL_LOG_LEVEL",
		"NASPANEL_LOG_FORMAT", "NASPANEL_TERMINAL",
		"NASPANEL_NTFY_URL", "NASPANEL_NTFY_TOPIC",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func testHash(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

const fullYAML = `
listen: ":9090"
db_path: "/tmp/test.db"
log_level: "debug"
log_format: "json"
render_interval: "500ms"
stale_after: "2m"
restart_delay: "3s"
mqtt_retry_interval: "10s"

display:
  terminal: true
  log_frames: true

admin:
  username: "admin"
  password_hash: "${ADMIN_HASH}"

notifications:
  - type: ntfy
    url: "http://10.100.1.104:8080"
    topic: "nas-alerts"
  - type: webhook
    url: "https://hooks.example.com/naspanel"
    method: "POST"
    headers:
      Authorization: "Bearer xxx"

alerts:
  disk_failed:
    severity: "critical"
    cooldown: "6h"
  cpu_high:
    threshold: 90
    duration: "5m"
    severity: "warning"
    cooldown: "1h"
  storage_full:
    threshold: 85
    severity: "warning"
  telemetry_stale:
    max_age: "10m"
    severity: "critical"
`

func TestLoad_FromYAML(t *testing.T) {
	clearEnv(t)
	hash := testHash(t, "hunter2")
	t.Setenv("ADMIN_HASH", hash)
	path := writeYAML(t, fullYAML)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 500*time.Millisecond, cfg.RenderInterval.Duration)
	assert.Equal(t, 2*time.Minute, cfg.StaleAfter.Duration)
	assert.Equal(t, 3*time.Second, cfg.RestartDelay.Duration)
	assert.Equal(t, 10*time.Second, cfg.MQTTRetryInterval.Duration)

	assert.Equal(t, DisplayConfig{Terminal: true, LogFrames: true}, cfg.Display)

	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.Equal(t, hash, cfg.Admin.PasswordHash)
	assert.True(t, cfg.Admin.Enabled())

	require.Len(t, cfg.Notifications, 2)
	assert.Equal(t, "ntfy", cfg.Notifications[0].Type)
	assert.Equal(t, "nas-alerts", cfg.Notifications[0].Topic)
	assert.Equal(t, "webhook", cfg.Notifications[1].Type)
	assert.Equal(t, "Bearer xxx", cfg.Notifications[1].Headers["Authorization"])

	require.NotNil(t, cfg.Alerts.DiskFailed)
	assert.Equal(t, "critical", cfg.Alerts.DiskFailed.Severity)
	assert.Equal(t, 6*time.Hour, cfg.Alerts.DiskFailed.Cooldown.Duration)
	require.NotNil(t, cfg.Alerts.CPUHigh)
	assert.Equal(t, 90.0, cfg.Alerts.CPUHigh.Threshold)
	assert.Equal(t, 5*time.Minute, cfg.Alerts.CPUHigh.Duration.Duration)
	require.NotNil(t, cfg.Alerts.StorageFull)
	assert.Equal(t, 85.0, cfg.Alerts.StorageFull.Threshold)
	assert.Zero(t, cfg.Alerts.StorageFull.Cooldown.Duration)
	require.NotNil(t, cfg.Alerts.TelemetryStale)
	assert.Equal(t, 10*time.Minute, cfg.Alerts.TelemetryStale.MaxAge.Duration)
}

func TestLoad_FileNotFound(t *testing.T) {
	clearEnv(t)
	_, err := Load("/nonexistent/path/naspanel.yml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func TestLoad_NoPathUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "/data/naspanel.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, time.Second, cfg.RenderInterval.Duration)
	assert.Zero(t, cfg.StaleAfter.Duration)
	assert.Equal(t, time.Second, cfg.RestartDelay.Duration)
	assert.Equal(t, 5*time.Second, cfg.MQTTRetryInterval.Duration)
	assert.False(t, cfg.Display.Terminal)
	assert.False(t, cfg.Admin.Enabled())
	assert.Empty(t, cfg.Notifications)
}

func TestLoad_EmptyFile(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, "")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Listen)
}

func TestLoad_EnvVarSubstitution(t *testing.T) {
	clearEnv(t)
	t.Setenv("NTFY_HOST", "http://ntfy.lan")
	t.Setenv("NTFY_TOPIC", "nas")

	path := writeYAML(t, `
notifications:
  - type: ntfy
    url: "${NTFY_HOST}"
    topic: "${NTFY_TOPIC}"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://ntfy.lan", cfg.Notifications[0].URL)
	assert.Equal(t, "nas", cfg.Notifications[0].Topic)
}

func TestLoad_EnvVarSubstitution_Unset(t *testing.T) {
	clearEnv(t)

	path := writeYAML(t, `
notifications:
  - type: ntfy
    url: "${NTFY_HOST_UNSET}"
    topic: "nas"
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url is required for ntfy")
}

func TestLoad_FromEnvVars(t *testing.T) {
	clearEnv(t)

	t.Setenv("NASPANEL_LISTEN", ":4000")
	t.Setenv("NASPANEL_DB_PATH", "/tmp/env.db")
	t.Setenv("NASPANEL_LOG_LEVEL", "warn")
	t.Setenv("NASPANEL_LOG_FORMAT", "json")
	t.Setenv("NASPANEL_TERMINAL", "TRUE")
	t.Setenv("NASPANEL_NTFY_URL", "http://ntfy:8080")
	t.Setenv("NASPANEL_NTFY_TOPIC", "test-alerts")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":4000", cfg.Listen)
	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.True(t, cfg.Display.Terminal)

	require.Len(t, cfg.Notifications, 1)
	assert.Equal(t, "ntfy", cfg.Notifications[0].Type)
	assert.Equal(t, "http://ntfy:8080", cfg.Notifications[0].URL)
	assert.Equal(t, "test-alerts", cfg.Notifications[0].Topic)
}

func TestLoad_EnvOverridesYAMLScalars(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `
listen: ":9000"
display:
  terminal: true
notifications:
  - type: webhook
    url: "https://hooks.example.com"
`)

	t.Setenv("NASPANEL_LISTEN", ":5555")
	t.Setenv("NASPANEL_TERMINAL", "0")
	t.Setenv("NASPANEL_NTFY_URL", "http://ntfy:8080")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":5555", cfg.Listen)
	assert.False(t, cfg.Display.Terminal)
	// Notifications from YAML are kept (env ntfy only applies when YAML has none).
	require.Len(t, cfg.Notifications, 1)
	assert.Equal(t, "webhook", cfg.Notifications[0].Type)
}

func TestLoad_NtfyDefaultTopic(t *testing.T) {
	clearEnv(t)
	t.Setenv("NASPANEL_NTFY_URL", "http://ntfy:8080")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Len(t, cfg.Notifications, 1)
	assert.Equal(t, "naspanel-alerts", cfg.Notifications[0].Topic)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing listen",
			mutate:  func(c *Config) { c.Listen = "" },
			wantErr: "listen is required",
		},
		{
			name:    "missing db path",
			mutate:  func(c *Config) { c.DBPath = "" },
			wantErr: "db_path is required",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantErr: "log_level must be one of",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.LogFormat = "yaml" },
			wantErr: "log_format must be one of",
		},
		{
			name:    "render interval zero",
			mutate:  func(c *Config) { c.RenderInterval = Duration{} },
			wantErr: "render_interval must be > 0",
		},
		{
			name:    "negative stale_after",
			mutate:  func(c *Config) { c.StaleAfter = Duration{-time.Second} },
			wantErr: "stale_after must be >= 0",
		},
		{
			name:    "negative restart delay",
			mutate:  func(c *Config) { c.RestartDelay = Duration{-time.Second} },
			wantErr: "restart_delay must be >= 0",
		},
		{
			name:    "retry interval zero",
			mutate:  func(c *Config) { c.MQTTRetryInterval = Duration{} },
			wantErr: "mqtt_retry_interval must be > 0",
		},
		{
			name:    "admin without username",
			mutate:  func(c *Config) { c.Admin = AdminConfig{PasswordHash: "$2a$04$abc"} },
			wantErr: "admin: username is required",
		},
		{
			name:    "admin plaintext password",
			mutate:  func(c *Config) { c.Admin = AdminConfig{Username: "admin", PasswordHash: "hunter2"} },
			wantErr: "admin: password_hash is not a bcrypt hash",
		},
		{
			name: "notification unknown type",
			mutate: func(c *Config) {
				c.Notifications = []NotificationConfig{{Type: "slack", URL: "http://x"}}
			},
			wantErr: "unknown type \"slack\"",
		},
		{
			name: "ntfy missing topic",
			mutate: func(c *Config) {
				c.Notifications = []NotificationConfig{{Type: "ntfy", URL: "http://x"}}
			},
			wantErr: "topic is required for ntfy",
		},
		{
			name: "webhook missing url",
			mutate: func(c *Config) {
				c.Notifications = []NotificationConfig{{Type: "webhook"}}
			},
			wantErr: "url is required for webhook",
		},
		{
			name:    "cpu_high zero threshold",
			mutate:  func(c *Config) { c.Alerts.CPUHigh = &AlertCPUHigh{} },
			wantErr: "alerts.cpu_high: threshold must be > 0",
		},
		{
			name:    "storage_full zero threshold",
			mutate:  func(c *Config) { c.Alerts.StorageFull = &AlertStorageFull{} },
			wantErr: "alerts.storage_full: threshold must be > 0",
		},
		{
			name:    "telemetry_stale zero max age",
			mutate:  func(c *Config) { c.Alerts.TelemetryStale = &AlertTelemetryStale{} },
			wantErr: "alerts.telemetry_stale: max_age must be > 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_AdminWithHash(t *testing.T) {
	cfg := validConfig()
	cfg.Admin = AdminConfig{Username: "admin", PasswordHash: testHash(t, "pw")}
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, "{{invalid yaml")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestLoad_InvalidDuration(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `render_interval: "not-a-duration"`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoad_ValidationFails(t *testing.T) {
	clearEnv(t)
	path := writeYAML(t, `log_level: "loud"`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation")
}

func TestDuration_MarshalYAML(t *testing.T) {
	d := Duration{Duration: 5 * time.Minute}
	v, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "5m0s", v)
}

func TestDuration_MarshalYAML_SubSecond(t *testing.T) {
	d := Duration{Duration: 500 * time.Millisecond}
	v, err := d.MarshalYAML()
	require.NoError(t, err)
	assert.Equal(t, "500ms", v)
}

func FuzzExpandEnvVars(f *testing.F) {
	f.Add([]byte(`listen: ":8080"`))
	f.Add([]byte(`password_hash: "${ADMIN_HASH}"`))
	f.Add([]byte(`${} ${VAR} $VAR`))
	f.Add([]byte(`url: "${A}${B}"`))
	f.Fuzz(func(t *testing.T, data []byte) {
		// Must not panic
		_ = expandEnvVars(data)
	})
}

// validConfig returns a minimal valid Config for mutation in tests.
func validConfig() *Config {
	return defaults()
}
