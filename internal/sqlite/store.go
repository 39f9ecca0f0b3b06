// Package sqlite serves knowledge-graph lookups from an offline snapshot.
// A snapshot is a directory of JSON Lines files, one document per line,
// loaded at startup into an in-memory SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// Store holds a loaded snapshot.
type Store struct {
	db     *sql.DB
	dir    string
	loaded int
}

// Open loads every *.jsonl file in dir into a fresh database. The snapshot
// files are never modified.
func Open(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: snapshot directory: %v", types.ErrConfig, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: snapshot directory %s is not a directory", types.ErrConfig, dir)
	}

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createEntities); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	n, err := loadDir(db, dir)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return &Store{db: db, dir: dir, loaded: n}, nil
}

// Len returns the number of documents loaded.
func (s *Store) Len() int { return s.loaded }

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Accessor returns a view of the store scoped to bucket ("org/project").
// Lookups that are not cross-bucket only see documents recorded for bucket
// or recorded without one.
func (s *Store) Accessor(bucket string) types.Accessor {
	return &view{store: s, bucket: bucket}
}

type view struct {
	store  *Store
	bucket string
}

func (v *view) Retrieve(ctx context.Context, id string, crossBucket bool) (*types.Entity, error) {
	var payload string
	err := v.store.db.QueryRowContext(ctx,
		`SELECT payload FROM entities WHERE id = ? AND (? OR bucket = ? OR bucket = '')`,
		id, crossBucket, v.bucket,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", id, err)
	}
	e, err := types.DecodeEntity([]byte(payload))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return e, nil
}
