package nexus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/protofetch/internal/blob"
	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// FileTimeout bounds a whole file retrieval, download included.
const FileTimeout = 300 * time.Second

// FileOptions controls GetFile.
type FileOptions struct {
	// MetadataOnly requests the JSON-LD description of the file instead of
	// its content.
	MetadataOnly bool
	// Sink receives the content when MetadataOnly is false.
	Sink blob.Sink
	// Key names the object written to Sink. Defaults to the last URL path
	// segment.
	Key string
	// HTTPClient overrides the default client, whose timeout is FileTimeout.
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// FileResult is what GetFile produced: the decoded metadata document, or
// the written object.
type FileResult struct {
	Metadata map[string]any
	Object   *blob.Info
}

// ErrFileDestination is returned when the destination does not match the
// retrieval mode.
var ErrFileDestination = fmt.Errorf("%w: a destination is required to download content and must be omitted for metadata", types.ErrConfig)

// GetFile retrieves the file at contentURL with a bearer token. With
// MetadataOnly it returns the decoded metadata; otherwise it streams the
// content into opts.Sink in blob.ChunkSize pieces.
func GetFile(ctx context.Context, contentURL, token string, opts FileOptions) (*FileResult, error) {
	if opts.MetadataOnly == (opts.Sink != nil) {
		return nil, ErrFileDestination
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: FileTimeout}
	}
	ctx, cancel := context.WithTimeout(ctx, FileTimeout)
	defer cancel()

	accept := MediaAny
	if opts.MetadataOnly {
		accept = MediaJSONLD
	}
	body, err := doGet(ctx, hc, opts.Logger, contentURL, token, accept)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	if opts.MetadataOnly {
		var meta map[string]any
		if err := json.NewDecoder(body).Decode(&meta); err != nil {
			return nil, fmt.Errorf("decode file metadata: %w", err)
		}
		return &FileResult{Metadata: meta}, nil
	}

	key := opts.Key
	if key == "" {
		key = keyFromURL(contentURL)
	}
	info, err := opts.Sink.Write(ctx, key, body, "")
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", key, err)
	}
	opts.Logger.Info().Str("key", info.Key).Int64("size", info.Size).Msg("file downloaded")
	return &FileResult{Object: &info}, nil
}

func keyFromURL(contentURL string) string {
	u, err := url.Parse(contentURL)
	if err != nil || u.Path == "" {
		return "download"
	}
	base := path.Base(u.Path)
	if base == "/" || base == "." {
		return "download"
	}
	return base
}
