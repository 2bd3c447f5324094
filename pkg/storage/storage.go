package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sw33tLie/phishguard/pkg/remote"
	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

var _ Store = (*DB)(nil)

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS records (
  name       TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS url_events (
  id          INTEGER PRIMARY KEY,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  url         TEXT NOT NULL,
  url_set     TEXT NOT NULL CHECK (url_set IN ('phishing','legitimate','blocked')),
  source      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_time ON url_events(occurred_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Load reads every record. Missing records leave the matching field empty.
func (d *DB) Load(ctx context.Context) (State, error) {
	var st State
	rows, err := d.sql.QueryContext(ctx, "SELECT name, value FROM records")
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return st, err
		}
		if err := decodeRecord(&st, name, value); err != nil {
			return st, fmt.Errorf("record %s: %w", name, err)
		}
	}
	return st, rows.Err()
}

func decodeRecord(st *State, name, value string) error {
	switch name {
	case RecordPhishing:
		return json.Unmarshal([]byte(value), &st.Phishing)
	case RecordLegitimate:
		return json.Unmarshal([]byte(value), &st.Legitimate)
	case RecordBlocked:
		return json.Unmarshal([]byte(value), &st.Blocked)
	case RecordAPIConfig:
		var cfg remote.Config
		if err := json.Unmarshal([]byte(value), &cfg); err != nil {
			return err
		}
		st.APIConfig = &cfg
	}
	// Unknown records are kept in the table and ignored.
	return nil
}

// Save writes all records of st and appends events in one transaction.
func (d *DB) Save(ctx context.Context, st State, events []Event) (err error) {
	records, err := encodeState(st)
	if err != nil {
		return err
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, r := range records {
		_, err = tx.ExecContext(ctx, `INSERT INTO records(name, value, updated_at) VALUES(?,?,CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, r.name, r.value)
		if err != nil {
			return err
		}
	}
	for _, e := range events {
		_, err = tx.ExecContext(ctx, `INSERT INTO url_events(occurred_at, url, url_set, source) VALUES(CURRENT_TIMESTAMP, ?, ?, ?)`, e.URL, e.Set, e.Source)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

type record struct{ name, value string }

func encodeState(st State) ([]record, error) {
	out := make([]record, 0, 4)
	add := func(name string, v interface{}) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		out = append(out, record{name, string(b)})
		return nil
	}
	if err := add(RecordPhishing, nonNil(st.Phishing)); err != nil {
		return nil, err
	}
	if err := add(RecordLegitimate, nonNil(st.Legitimate)); err != nil {
		return nil, err
	}
	if err := add(RecordBlocked, nonNil(st.Blocked)); err != nil {
		return nil, err
	}
	if st.APIConfig != nil {
		if err := add(RecordAPIConfig, st.APIConfig); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ListRecentEvents returns the most recent N events, newest first.
func (d *DB) ListRecentEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT occurred_at, url, url_set, source FROM url_events ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var occurredAtStr string
		if err := rows.Scan(&occurredAtStr, &e.URL, &e.Set, &e.Source); err != nil {
			return nil, err
		}
		e.OccurredAt = parseTimestamp(occurredAtStr)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// RecordInfo describes one stored record.
type RecordInfo struct {
	Name      string
	Bytes     int
	UpdatedAt time.Time
}

// ListRecords returns the name, size and last write of every record.
func (d *DB) ListRecords(ctx context.Context) ([]RecordInfo, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT name, LENGTH(value), updated_at FROM records ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RecordInfo
	for rows.Next() {
		var r RecordInfo
		var updatedAtStr string
		if err := rows.Scan(&r.Name, &r.Bytes, &updatedAtStr); err != nil {
			return nil, err
		}
		r.UpdatedAt = parseTimestamp(updatedAtStr)
		out = append(out, r)
	}
	return out, rows.Err()
}

// parseTimestamp accepts SQLite's CURRENT_TIMESTAMP format and RFC3339.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
