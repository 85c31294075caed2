package foundlog

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mahdiidarabi/keyscan/pkg/keyscan"
	"github.com/mahdiidarabi/keyscan/pkg/pathtree"
)

// SQLiteLog inserts found records into a found_keys table. Rows are never
// updated or deleted.
type SQLiteLog struct {
	mu sync.Mutex
	db *sql.DB
}

// OpenSQLite opens or creates the database file at path.
func OpenSQLite(path string) (*SQLiteLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("foundlog: mkdir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("foundlog: open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("foundlog: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("foundlog: create tables: %w", err)
	}
	return &SQLiteLog{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS found_keys (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	candidate_hex TEXT NOT NULL,
	derived_identifier TEXT NOT NULL,
	position_in_range TEXT NOT NULL,
	path TEXT,
	percent REAL,
	strategy TEXT NOT NULL,
	found_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_found_keys_identifier ON found_keys(derived_identifier);
`

// Append implements Log.
func (l *SQLiteLog) Append(ctx context.Context, rec keyscan.FoundRecord) error {
	pos := "0"
	if rec.PositionInRange != nil {
		pos = rec.PositionInRange.Text(10)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO found_keys (candidate_hex, derived_identifier, position_in_range, path, percent, strategy, found_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.CandidateHex,
		rec.DerivedIdentifier,
		pos,
		string(rec.Path),
		rec.Percent,
		string(rec.Strategy),
		rec.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("foundlog: insert: %w", err)
	}
	return nil
}

// Records implements Log.
func (l *SQLiteLog) Records(ctx context.Context) ([]keyscan.FoundRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT candidate_hex, derived_identifier, position_in_range, path, percent, strategy, found_at
		FROM found_keys ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("foundlog: query: %w", err)
	}
	defer rows.Close()

	var out []keyscan.FoundRecord
	for rows.Next() {
		var (
			rec      keyscan.FoundRecord
			pos      string
			path     sql.NullString
			percent  sql.NullFloat64
			strategy string
			foundAt  string
		)
		if err := rows.Scan(&rec.CandidateHex, &rec.DerivedIdentifier, &pos, &path, &percent, &strategy, &foundAt); err != nil {
			return nil, fmt.Errorf("foundlog: scan row: %w", err)
		}
		v, ok := new(big.Int).SetString(pos, 10)
		if !ok {
			return nil, fmt.Errorf("foundlog: bad position %q", pos)
		}
		ts, err := time.Parse(time.RFC3339Nano, foundAt)
		if err != nil {
			return nil, fmt.Errorf("foundlog: bad timestamp %q: %w", foundAt, err)
		}
		rec.PositionInRange = v
		rec.Path = pathtree.Path(path.String)
		rec.Percent = percent.Float64
		rec.Strategy = keyscan.Strategy(strategy)
		rec.Timestamp = ts
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("foundlog: iterate rows: %w", err)
	}
	return out, nil
}

// Close implements Log.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
