package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// maxLineSize bounds a single JSONL record. Morphology documents with large
// embedded distributions exceed bufio's default.
const maxLineSize = 16 << 20

// bucketSeparator joins org and project in snapshot file names, as in
// bbp__atlas.jsonl.
const bucketSeparator = "__"

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		cp := make([]byte, len(line))
		copy(cp, line)
		records = append(records, json.RawMessage(cp))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail(fmt.Errorf("writing record: %w", err))
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail(fmt.Errorf("writing newline: %w", err))
		}
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("flushing buffer: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return fail(fmt.Errorf("syncing temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// bucketFromFileName maps bbp__atlas.jsonl to "bbp/atlas". Other names map
// to the empty bucket.
func bucketFromFileName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), ".jsonl")
	org, project, ok := strings.Cut(name, bucketSeparator)
	if !ok || org == "" || project == "" {
		return ""
	}
	return org + "/" + project
}

// fileNameForBucket is the inverse of bucketFromFileName.
func fileNameForBucket(bucket string) string {
	org, project, ok := strings.Cut(bucket, "/")
	if !ok {
		return "entities.jsonl"
	}
	return org + bucketSeparator + project + ".jsonl"
}

// bucketFromProject extracts "org/project" from a Nexus _project value such
// as https://bbp.epfl.ch/nexus/v1/projects/bbp/atlas.
func bucketFromProject(project string) string {
	parts := strings.Split(strings.TrimRight(project, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	org, proj := parts[len(parts)-2], parts[len(parts)-1]
	if org == "" || proj == "" {
		return ""
	}
	return org + "/" + proj
}
