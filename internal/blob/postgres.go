package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores blobs in a "blobs" table of a PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects using dsn, pings, and creates the blobs table if missing.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres: dsn is empty", ErrUnavailable)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres: %w", ErrUnavailable, err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()

		return nil, fmt.Errorf("%w: postgres ping: %w", ErrUnavailable, err)
	}

	_, err = pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		data BYTEA NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		pool.Close()

		return nil, fmt.Errorf("postgres create table: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Load implements Store.
func (p *Postgres) Load(ctx context.Context, key string) ([]byte, bool, error) {
	err := validateKey(key)
	if err != nil {
		return nil, false, err
	}

	var data []byte

	err = p.pool.QueryRow(ctx, "SELECT data FROM blobs WHERE key = $1", key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, fmt.Errorf("postgres select %s: %w", key, err)
	}

	return data, true, nil
}

// Save implements Store.
func (p *Postgres) Save(ctx context.Context, key string, data []byte) error {
	err := validateKey(key)
	if err != nil {
		return err
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO blobs (key, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("postgres upsert %s: %w", key, err)
	}

	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()

	return nil
}
