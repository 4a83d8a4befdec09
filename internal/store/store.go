// Package store provides SQLite persistence for the panel's settings and
// alert history.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/darshan-rambhia/naspanel/internal/model"
	_ "modernc.org/sqlite"
)

// ErrCorrupt is returned when a stored settings record cannot be decoded.
// The accompanying ConnectionConfig holds defaults and is safe to use.
var ErrCorrupt = errors.New("stored settings are corrupt")

// Setting keys of the connection record.
const (
	KeyBrokerHost = "mqtt_server"
	KeyBrokerPort = "mqtt_port"
	KeyUsername   = "mqtt_user"
	KeyPassword   = "mqtt_password"
	KeyTopic      = "mqtt_topic"
)

// Store wraps a SQLite database for panel persistence.
type Store struct {
	db *sql.DB
}

// New opens or creates a SQLite database at the given path and runs migrations.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", dbPath, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadConnection reads the connection record. With no record it returns the
// defaults and a nil error. Keys missing from a partial record fall back to
// their defaults. A record that cannot be decoded yields the defaults and an
// error wrapping ErrCorrupt.
func (s *Store) LoadConnection() (model.ConnectionConfig, error) {
	cfg := model.DefaultConnectionConfig()

	rows, err := s.db.Query(`SELECT key, value FROM settings WHERE key IN (?, ?, ?, ?, ?)`,
		KeyBrokerHost, KeyBrokerPort, KeyUsername, KeyPassword, KeyTopic)
	if err != nil {
		return cfg, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 5)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return cfg, fmt.Errorf("scanning setting: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return cfg, fmt.Errorf("reading settings: %w", err)
	}

	loaded := cfg
	if v, ok := values[KeyBrokerHost]; ok {
		loaded.BrokerHost = v
	}
	if v, ok := values[KeyBrokerPort]; ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("%w: port %q: %v", ErrCorrupt, v, err)
		}
		if err := model.ValidatePort(port); err != nil {
			return cfg, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		loaded.BrokerPort = port
	}
	if v, ok := values[KeyUsername]; ok {
		loaded.Username = v
	}
	if v, ok := values[KeyPassword]; ok {
		loaded.Password = v
	}
	if v := values[KeyTopic]; v != "" {
		loaded.Topic = v
	}
	return loaded, nil
}

// SaveConnection writes all fields of the connection record in one transaction.
func (s *Store) SaveConnection(cfg model.ConnectionConfig) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning settings transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	now := time.Now().Unix()
	fields := []struct {
		key, value string
	}{
		{KeyBrokerHost, cfg.BrokerHost},
		{KeyBrokerPort, strconv.Itoa(cfg.BrokerPort)},
		{KeyUsername, cfg.Username},
		{KeyPassword, cfg.Password},
		{KeyTopic, cfg.Topic},
	}
	for _, f := range fields {
		if _, err := tx.Exec(`
			INSERT INTO settings (key, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at`,
			f.key, f.value, now,
		); err != nil {
			return fmt.Errorf("saving setting %s: %w", f.key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing settings: %w", err)
	}
	return nil
}

// AlertRecord is one row of the alert log.
type AlertRecord struct {
	Timestamp int64  `json:"ts"`
	AlertType string `json:"alert_type"`
	Host      string `json:"host"`
	Subject   string `json:"subject"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
}

// InsertAlert logs an alert.
func (s *Store) InsertAlert(ts int64, alertType, host, subject, message, severity string) error {
	_, err := s.db.Exec(`
		INSERT INTO alert_log (ts, alert_type, host, subject, message, severity)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ts, alertType, host, subject, message, severity,
	)
	if err != nil {
		return fmt.Errorf("inserting alert: %w", err)
	}
	return nil
}

// RecentAlerts returns up to limit alerts, newest first.
func (s *Store) RecentAlerts(limit int) ([]AlertRecord, error) {
	rows, err := s.db.Query(`
		SELECT ts, alert_type, COALESCE(host, ''), subject, message, severity
		FROM alert_log
		ORDER BY ts DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying alerts: %w", err)
	}
	defer rows.Close()

	var alerts []AlertRecord
	for rows.Next() {
		var a AlertRecord
		if err := rows.Scan(&a.Timestamp, &a.AlertType, &a.Host, &a.Subject, &a.Message, &a.Severity); err != nil {
			return nil, fmt.Errorf("scanning alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
