package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresSlot stores the document as one row of tracker_slots
type PostgresSlot struct {
	pool *pgxpool.Pool
	name string
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
	Name         string
}

// NewPostgresSlot creates a connection pool and verifies it
func NewPostgresSlot(ctx context.Context, cfg PostgresConfig) (*PostgresSlot, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("slot name is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	// Set pool configuration
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 4
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 1
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresSlot{pool: pool, name: cfg.Name}, nil
}

// Load reads the document
func (s *PostgresSlot) Load(ctx context.Context) ([]byte, error) {
	query := `SELECT data FROM tracker_slots WHERE name = $1`

	var data []byte
	err := s.pool.QueryRow(ctx, query, s.name).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotEmpty
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}

	return data, nil
}

// Store upserts the document in a single statement
func (s *PostgresSlot) Store(ctx context.Context, data []byte) error {
	query := `
		INSERT INTO tracker_slots (name, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`

	if _, err := s.pool.Exec(ctx, query, s.name, data); err != nil {
		return fmt.Errorf("failed to store slot: %w", err)
	}

	return nil
}

// Ping checks database connectivity
func (s *PostgresSlot) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the database connection pool
func (s *PostgresSlot) Close() error {
	s.pool.Close()
	return nil
}
