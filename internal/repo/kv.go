// Package repo contains all storage access logic for the Mapty service.
// A KVStore keeps one string value per key; WorkoutRepo serializes a whole
// workout list into a single value. No business logic lives here, only
// storage calls and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/mapty/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, pgx.Tx
// and pgxmock pools. Integration tests pass a transaction that is rolled
// back after each test; unit tests pass a pgxmock pool.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// KVStore is a string key-value store. Every Set overwrites the whole value.
type KVStore interface {
	// Get returns the value stored under key.
	// Returns domain.ErrNotFound if nothing is stored under key.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, key string) error
}

// pgKVStore is the Postgres implementation of KVStore.
type pgKVStore struct {
	db db
}

// NewPostgresKVStore constructs a KVStore backed by the kv_entries table.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx or a pgxmock pool.
func NewPostgresKVStore(db db) KVStore {
	return &pgKVStore{db: db}
}

// Get reads a single value by key.
func (s *pgKVStore) Get(ctx context.Context, key string) (string, error) {
	const q = `SELECT value FROM kv_entries WHERE key = @key`

	var value string
	err := s.db.QueryRow(ctx, q, pgx.NamedArgs{"key": key}).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("repo.KVStore.Get: %w", domain.ErrNotFound)
		}
		return "", fmt.Errorf("repo.KVStore.Get: %w", err)
	}
	return value, nil
}

// Set upserts value under key and bumps updated_at.
func (s *pgKVStore) Set(ctx context.Context, key, value string) error {
	const q = `
		INSERT INTO kv_entries (key, value)
		VALUES (@key, @value)
		ON CONFLICT (key) DO UPDATE
		SET value      = EXCLUDED.value,
		    updated_at = now()`

	if _, err := s.db.Exec(ctx, q, pgx.NamedArgs{"key": key, "value": value}); err != nil {
		return fmt.Errorf("repo.KVStore.Set: %w", err)
	}
	return nil
}

// Delete removes a key.
func (s *pgKVStore) Delete(ctx context.Context, key string) error {
	const q = `DELETE FROM kv_entries WHERE key = @key`

	tag, err := s.db.Exec(ctx, q, pgx.NamedArgs{"key": key})
	if err != nil {
		return fmt.Errorf("repo.KVStore.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.KVStore.Delete: %w", domain.ErrNotFound)
	}
	return nil
}
