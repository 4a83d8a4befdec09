// Package model defines all shared domain types for the NAS panel.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxDisks is the number of physical disk slots the panel shows.
const MaxDisks = 6

// Connection defaults.
const (
	DefaultTopic      = "nas/panel/data"
	DefaultBrokerPort = 1883
)

// DiskStatus is the health tag of a single disk slot.
type DiskStatus int

const (
	DiskHealthy DiskStatus = iota
	DiskWarning
	DiskError
)

// ParseDiskStatus converts a free-form status string. Only "error" and
// "warning" are recognised; anything else is healthy.
func ParseDiskStatus(s string) DiskStatus {
	switch s {
	case "error":
		return DiskError
	case "warning":
		return DiskWarning
	default:
		return DiskHealthy
	}
}

func (d DiskStatus) String() string {
	switch d {
	case DiskError:
		return "error"
	case DiskWarning:
		return "warning"
	default:
		return "healthy"
	}
}

// MarshalText renders the status as its string tag.
func (d DiskStatus) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// CPUStats holds processor load and temperature.
type CPUStats struct {
	UsagePercent float64 `json:"usage_pct"`
	TemperatureC float64 `json:"temperature_c"`
}

// MemoryStats holds memory load and temperature.
type MemoryStats struct {
	UsagePercent float64 `json:"usage_pct"`
	TemperatureC float64 `json:"temperature_c"`
}

// StorageStats holds pool capacity and per-slot disk health.
// Disks is indexed by physical slot, not by disk identifier.
type StorageStats struct {
	CapacityBytes float64              `json:"capacity_bytes"`
	UsedBytes     float64              `json:"used_bytes"`
	Disks         [MaxDisks]DiskStatus `json:"disks"`
}

// NetworkStats holds current throughput.
type NetworkStats struct {
	UploadBytesPerSec   float64 `json:"upload_bps"`
	DownloadBytesPerSec float64 `json:"download_bps"`
}

// NasState is the last known health of the remote storage server.
// The zero value is the "no data yet" state.
type NasState struct {
	Hostname   string       `json:"hostname"`
	IPAddress  string       `json:"ip"`
	CPU        CPUStats     `json:"cpu"`
	Memory     MemoryStats  `json:"memory"`
	Storage    StorageStats `json:"storage"`
	Network    NetworkStats `json:"network"`
	LastUpdate time.Time    `json:"last_update"`
	Valid      bool         `json:"valid"`
}

// ConnectionConfig holds the broker settings edited through the web page.
// The JSON names match the configuration form.
type ConnectionConfig struct {
	BrokerHost string `json:"mqttServer"`
	BrokerPort int    `json:"mqttPort"`
	Username   string `json:"mqttUser"`
	Password   string `json:"mqttPassword"`
	Topic      string `json:"mqttTopic"`
}

// DefaultConnectionConfig returns an unconfigured connection.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		BrokerPort: DefaultBrokerPort,
		Topic:      DefaultTopic,
	}
}

// Configured reports whether a broker host has been set.
func (c ConnectionConfig) Configured() bool {
	return strings.TrimSpace(c.BrokerHost) != ""
}

// Validate checks that a connection can be attempted.
func (c ConnectionConfig) Validate() error {
	if !c.Configured() {
		return errors.New("broker host is required")
	}
	if err := ValidatePort(c.BrokerPort); err != nil {
		return err
	}
	if c.Topic == "" {
		return errors.New("topic is required")
	}
	return nil
}

// ValidatePort checks that p is a usable TCP port.
func ValidatePort(p int) error {
	if p < 1 || p > 65535 {
		return fmt.Errorf("broker port %d out of range 1-65535", p)
	}
	return nil
}

// BrokerURL returns the paho-style server URL.
func (c ConnectionConfig) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.BrokerHost, c.BrokerPort)
}

// Notification represents a structured alert message.
type Notification struct {
	AlertType string            `json:"alert_type"`
	Severity  string            `json:"severity"` // "info", "warning", "critical"
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Host      string            `json:"host"`
	Subject   string            `json:"subject"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}
