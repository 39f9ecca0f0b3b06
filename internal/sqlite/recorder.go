package sqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// Recorder captures every document an accessor returns so a live query can
// be replayed offline from the resulting snapshot.
type Recorder struct {
	mu      sync.Mutex
	buckets map[string]map[string]json.RawMessage
	order   map[string][]string
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		buckets: make(map[string]map[string]json.RawMessage),
		order:   make(map[string][]string),
	}
}

// Wrap returns an accessor that records successful lookups under bucket.
// Documents are keyed by their own identifier, which is what the loader
// indexes them by on replay; the requested id is used only when the
// document carries none.
func (r *Recorder) Wrap(a types.Accessor, bucket string) types.Accessor {
	return types.AccessorFunc(func(ctx context.Context, id string, crossBucket bool) (*types.Entity, error) {
		e, err := a.Retrieve(ctx, id, crossBucket)
		if err == nil && e != nil && len(e.Raw) > 0 {
			key := e.ID
			if key == "" {
				key = id
			}
			r.add(bucket, key, e.Raw)
		}
		return e, err
	})
}

func (r *Recorder) add(bucket, id string, raw json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	docs, ok := r.buckets[bucket]
	if !ok {
		docs = make(map[string]json.RawMessage)
		r.buckets[bucket] = docs
	}
	if _, seen := docs[id]; !seen {
		r.order[bucket] = append(r.order[bucket], id)
	}
	docs[id] = raw
}

// Len returns the number of distinct documents recorded.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, docs := range r.buckets {
		n += len(docs)
	}
	return n
}

// WriteDir writes one org__project.jsonl file per bucket into dir, in first
// retrieval order, and returns the files written.
func (r *Recorder) WriteDir(dir string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}
	buckets := make([]string, 0, len(r.buckets))
	for b := range r.buckets {
		buckets = append(buckets, b)
	}
	sort.Strings(buckets)

	var written []string
	for _, b := range buckets {
		records := make([]json.RawMessage, 0, len(r.order[b]))
		for _, id := range r.order[b] {
			records = append(records, compact(r.buckets[b][id]))
		}
		path := filepath.Join(dir, fileNameForBucket(b))
		if err := writeJSONL(path, records); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// compact removes insignificant whitespace so a document fits on one line.
func compact(raw json.RawMessage) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
