package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-jobwatch-automation/internal/dedup"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS seen_postings (
	id      TEXT PRIMARY KEY,
	seen_at TEXT NOT NULL
)`

// SQLiteStore keeps the seen-set in an embedded database file.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open sqlite %s: %w", path, err)
	}
	// sqlite wants a single writer
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite unreachable: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (dedup.SeenSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM seen_postings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query seen_postings: %w", err)
	}
	defer rows.Close()

	seen := dedup.NewSeenSet()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return dedup.NewSeenSet(), fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		seen.Add(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read seen_postings: %w", err)
	}
	return seen, nil
}

func (s *SQLiteStore) Save(ctx context.Context, seen dedup.SeenSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO seen_postings (id, seen_at) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, id := range seen.IDs() {
		if _, err := stmt.ExecContext(ctx, id, now); err != nil {
			return fmt.Errorf("failed to save id %s: %w", id, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
