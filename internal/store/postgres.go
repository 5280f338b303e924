package store

import (
	"context"
	"fmt"
	"time"

	"go-jobwatch-automation/internal/dedup"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS seen_postings (
	id      TEXT PRIMARY KEY,
	seen_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps the seen-set in a Postgres table.
type PostgresStore struct {
	db *pgxpool.Pool
}

func ConnectPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 2
	config.MaxConnLifetime = time.Hour

	// Poolers in transaction mode (PgBouncer, Supabase) reject cached
	// prepared statements.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate seen_postings: %w", err)
	}
	return &PostgresStore{db: pool}, nil
}

// Load only reports ErrPersistence for rows that do not decode; a query or
// connection failure is returned as is so the cycle aborts instead of reseeding.
func (r *PostgresStore) Load(ctx context.Context) (dedup.SeenSet, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM seen_postings`)
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

func (r *PostgresStore) Save(ctx context.Context, seen dedup.SeenSet) error {
	batch := &pgx.Batch{}
	for _, id := range seen.IDs() {
		batch.Queue(`INSERT INTO seen_postings (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
	}
	if err := r.db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save seen ids: %w", err)
	}
	return nil
}

func (r *PostgresStore) Close() error {
	if r.db != nil {
		r.db.Close()
	}
	return nil
}
