package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrSlugTaken is returned when an insert collides with an
	// existing slug
	ErrSlugTaken = errors.New("slug already taken")

	// ErrNoFreeCapacity is returned by ClaimFreeSlot when the launch
	// date's free slots are exhausted at write time
	ErrNoFreeCapacity = errors.New("no free capacity remaining for launch date")

	// ErrNotFound is returned when a submission does not exist
	ErrNotFound = errors.New("submission not found")
)

// DB provides submission storage backed by Postgres
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new database instance over an existing pool
func NewDB(pool *pgxpool.Pool) *DB {
	return &DB{pool: pool}
}

// Connect opens a pgx connection pool and verifies it with a ping
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Close releases the underlying connection pool
func (db *DB) Close() {
	db.pool.Close()
}
