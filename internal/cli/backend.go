package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/protofetch/internal/metrics"
	"github.com/mesh-intelligence/protofetch/internal/nexus"
	"github.com/mesh-intelligence/protofetch/internal/postgres"
	"github.com/mesh-intelligence/protofetch/internal/sqlite"
	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// Metric source labels.
const (
	sourceSearch    = "search"
	sourceProtocols = "protocols"
)

// sources holds the accessors of one query run and what must happen after it.
type sources struct {
	search    types.Accessor
	protocols types.Accessor
	metrics   *metrics.Recorder
	recorder  *sqlite.Recorder
	closers   []func() error
}

func (s *sources) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// openSources connects to the configured backend and wraps its accessors
// with metering and, when requested, snapshot recording. protocols is nil
// when metadata resolution is disabled.
func (a *app) openSources(ctx context.Context, cfg types.Config) (*sources, error) {
	s := &sources{metrics: metrics.NewRecorder()}

	switch cfg.Backend {
	case types.BackendNexus:
		endpoint := nexus.DeploymentFor(cfg.Production)
		search, err := nexus.New(nexus.Options{
			Endpoint: endpoint,
			Org:      cfg.Org,
			Project:  cfg.Project,
			Token:    cfg.Token,
			Views:    nexus.SearchViews{Elastic: cfg.ESView, Sparql: cfg.SPView},
			Logger:   a.log,
		})
		if err != nil {
			return nil, err
		}
		s.search = search
		if cfg.ResolveMetadata {
			protocols, err := nexus.New(nexus.Options{
				Endpoint: endpoint,
				Org:      cfg.ProtocolsOrg,
				Project:  cfg.ProtocolsProject,
				Token:    cfg.Token,
				Logger:   a.log,
			})
			if err != nil {
				return nil, err
			}
			s.protocols = protocols
		}

	case types.BackendSQLite:
		store, err := sqlite.Open(cfg.SnapshotDir)
		if err != nil {
			return nil, err
		}
		a.log.Debug().Str("dir", cfg.SnapshotDir).Int("documents", store.Len()).Msg("snapshot loaded")
		s.closers = append(s.closers, store.Close)
		s.search = store.Accessor(cfg.Bucket())
		if cfg.ResolveMetadata {
			s.protocols = store.Accessor(cfg.ProtocolsBucket())
		}

	case types.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store.Close)
		s.search = store.Accessor(cfg.Bucket())
		if cfg.ResolveMetadata {
			s.protocols = store.Accessor(cfg.ProtocolsBucket())
		}

	default:
		return nil, fmt.Errorf("%w %q", types.ErrBackendUnknown, cfg.Backend)
	}

	s.search = s.metrics.Meter(s.search, sourceSearch)
	if s.protocols != nil {
		s.protocols = s.metrics.Meter(s.protocols, sourceProtocols)
	}
	if a.v.GetString(keyRecordSnapshot) != "" {
		s.recorder = sqlite.NewRecorder()
		s.search = s.recorder.Wrap(s.search, cfg.Bucket())
		if s.protocols != nil {
			s.protocols = s.recorder.Wrap(s.protocols, cfg.ProtocolsBucket())
		}
	}
	return s, nil
}

// finish writes the metrics file and recorded snapshot, if configured.
func (a *app) finish(s *sources) error {
	if path := a.v.GetString(keyMetricsFile); path != "" {
		if err := s.metrics.WriteTextfile(path); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
		a.log.Debug().Str("path", path).Msg("metrics written")
	}
	if dir := a.v.GetString(keyRecordSnapshot); dir != "" && s.recorder != nil {
		files, err := s.recorder.WriteDir(dir)
		if err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		a.log.Info().Str("dir", dir).Int("documents", s.recorder.Len()).Int("files", len(files)).Msg("snapshot recorded")
	}
	return nil
}
