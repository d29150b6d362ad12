package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sentiview/sentiview/internal/utils"
	_ "modernc.org/sqlite"
)

// DB is a small durable key/value store. Each write goes straight to disk
// under a cross-process file lock; concurrent writers still follow
// last-writer-wins semantics.
type DB struct {
	sql  *sql.DB
	lock *utils.DBLock
}

func Open(path string) (*DB, error) {
	absPath, err := utils.GetAbsDBPath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	lock, err := utils.NewDBLock(absPath)
	if err != nil {
		return nil, err
	}

	dsn := "file:" + absPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS kv (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
    `); err != nil {
		db.Close()
		return nil, err
	}
	utils.Log.Debugf("[storage] opened %s (write lock %s)", absPath, lock.Path())
	return &DB{sql: db, lock: lock}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Get returns the value stored under key and whether it exists.
func (d *DB) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Set upserts key immediately.
func (d *DB) Set(ctx context.Context, key, value string) error {
	return d.lock.WithLock(func() error {
		_, err := d.sql.ExecContext(ctx, `INSERT INTO kv(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, key, value)
		return err
	})
}

type LabelStats struct {
	Label string
	Count int
}

// GetStats counts stored history entries per label.
func (d *DB) GetStats(ctx context.Context) ([]LabelStats, error) {
	query := `
		SELECT
			json_extract(e.value, '$.result.label') AS label,
			COUNT(*)
		FROM
			kv AS k,
			json_each(CASE WHEN json_valid(k.value) THEN k.value ELSE '[]' END) AS e
		WHERE
			k.key = ?
		GROUP BY
			label
		ORDER BY
			label;
	`
	rows, err := d.sql.QueryContext(ctx, query, KeyHistory)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []LabelStats
	for rows.Next() {
		var (
			s     LabelStats
			label sql.NullString
		)
		if err := rows.Scan(&label, &s.Count); err != nil {
			return nil, err
		}
		s.Label = label.String
		if !label.Valid {
			s.Label = "(unknown)"
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
