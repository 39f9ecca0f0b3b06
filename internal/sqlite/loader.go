package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
)

// recordHeader is the part of a snapshot record the loader reads.
type recordHeader struct {
	AtID    string `json:"@id"`
	ID      string `json:"id"`
	Project string `json:"_project"`
}

// loadDir reads every *.jsonl file in dir, in name order, into the entities
// table. Loading is transactional: all files load or the table stays empty.
// Malformed lines and records without an identifier are skipped; a later
// record with the same identifier replaces an earlier one.
func loadDir(db *sql.DB, dir string) (int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.jsonl"))
	if err != nil {
		return 0, fmt.Errorf("listing snapshot files: %w", err)
	}
	sort.Strings(files)

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO entities (id, bucket, payload) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	loaded := 0
	for _, path := range files {
		records, err := readJSONL(path)
		if err != nil {
			return 0, err
		}
		fileBucket := bucketFromFileName(path)
		for _, rec := range records {
			var h recordHeader
			if err := json.Unmarshal(rec, &h); err != nil {
				continue
			}
			id := h.AtID
			if id == "" {
				id = h.ID
			}
			if id == "" {
				continue
			}
			bucket := bucketFromProject(h.Project)
			if bucket == "" {
				bucket = fileBucket
			}
			if _, err := stmt.Exec(id, bucket, string(rec)); err != nil {
				return 0, fmt.Errorf("loading %s from %s: %w", id, filepath.Base(path), err)
			}
			loaded++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return loaded, nil
}
