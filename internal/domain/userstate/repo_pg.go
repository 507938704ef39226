package userstate

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== PostgreSQL Repository ===========

type pgRepo struct {
	db queryable
}

// NewPGRepo stores blobs in the user_state table created by the embedded
// migrations. The pool is owned by the caller.
func NewPGRepo(pool *pgxpool.Pool) Repository {
	return &pgRepo{db: pool}
}

func (r *pgRepo) Load(ctx context.Context, key string) ([]byte, error) {
	var blob []byte
	err := r.db.QueryRow(ctx, `SELECT value::text FROM user_state WHERE key = $1`, key).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	return blob, nil
}

func (r *pgRepo) Save(ctx context.Context, key string, blob []byte) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO user_state (key, value) VALUES ($1, $2::jsonb)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		key, string(blob))
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func (r *pgRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM user_state WHERE key = ANY($1)`, keys); err != nil {
		return fmt.Errorf("delete state: %w", err)
	}
	return nil
}

// Close is a no-op; the shared pool is closed by its owner.
func (r *pgRepo) Close() error { return nil }
