// Package blob writes downloaded file content to a destination: a local
// directory or an S3-compatible bucket.
package blob

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Driver identifies a sink implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

// ChunkSize is the copy buffer used when streaming content into a sink.
const ChunkSize = 4096

// Info describes a written object.
type Info struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type,omitempty"`
	ETag        string `json:"etag,omitempty"`
	// Location is the file path or s3:// URI of the object.
	Location string `json:"location"`
}

// Sink receives streamed content under a key.
type Sink interface {
	Driver() Driver
	// Write stores everything read from r under key, replacing any existing
	// object.
	Write(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
}

// Open parses dest and returns the sink and key it designates. A dest of the
// form s3://bucket/key selects the S3 driver configured by s3cfg; anything
// else is a local file path whose directory becomes the sink root.
func Open(ctx context.Context, dest string, s3cfg S3Config) (Sink, string, error) {
	if dest == "" {
		return nil, "", fmt.Errorf("empty destination")
	}
	if rest, ok := strings.CutPrefix(dest, "s3://"); ok {
		bucket, key, _ := strings.Cut(rest, "/")
		if bucket == "" || key == "" {
			return nil, "", fmt.Errorf("invalid s3 destination %q: want s3://bucket/key", dest)
		}
		s3cfg.Bucket = bucket
		sink, err := NewS3(ctx, s3cfg)
		if err != nil {
			return nil, "", err
		}
		return sink, key, nil
	}
	abs, err := filepath.Abs(dest)
	if err != nil {
		return nil, "", err
	}
	sink, err := NewFilesystem(filepath.Dir(abs))
	if err != nil {
		return nil, "", err
	}
	return sink, filepath.Base(abs), nil
}

// copyChunked copies src to dst in reads of at most ChunkSize bytes.
func copyChunked(dst io.Writer, src io.Reader) (int64, error) {
	return io.CopyBuffer(onlyWriter{dst}, onlyReader{src}, make([]byte, ChunkSize))
}

// onlyReader and onlyWriter hide WriterTo and ReaderFrom, which would make
// CopyBuffer ignore its buffer.
type onlyReader struct{ io.Reader }

type onlyWriter struct{ io.Writer }
