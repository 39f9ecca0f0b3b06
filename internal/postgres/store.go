// Package postgres serves knowledge-graph lookups from a Postgres mirror
// table holding one JSON-LD document per identifier.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

const defaultDriver = "pgx"

// Table is the mirror table name.
const Table = "protofetch_entities"

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store reads entity documents from the mirror table.
type Store struct {
	db *sql.DB
}

// Open connects to dsn, checks the connection and ensures the mirror table
// exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, types.ErrDSNMissing
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureTable(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func ensureTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS ` + Table + ` (
		id TEXT PRIMARY KEY,
		bucket TEXT NOT NULL DEFAULT '',
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure %s table: %w", Table, err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Accessor returns a view of the mirror scoped to bucket ("org/project").
func (s *Store) Accessor(bucket string) types.Accessor {
	return &view{db: s.db, bucket: bucket}
}

type view struct {
	db     *sql.DB
	bucket string
}

func (v *view) Retrieve(ctx context.Context, id string, crossBucket bool) (*types.Entity, error) {
	var payload []byte
	err := v.db.QueryRowContext(ctx,
		`SELECT payload FROM `+Table+` WHERE id = $1 AND ($2 OR bucket = $3 OR bucket = '')`,
		id, crossBucket, v.bucket,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", id, err)
	}
	e, err := types.DecodeEntity(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return e, nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}
