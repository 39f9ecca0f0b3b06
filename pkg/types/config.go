package types

import (
	"errors"
	"fmt"
)

// Config holds everything a query needs to reach the knowledge graph.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`

	Token   string `json:"-" yaml:"token,omitempty"`
	Org     string `json:"org" yaml:"org"`
	Project string `json:"project" yaml:"project"`

	// Search views (Elasticsearch and SPARQL) configured for the search bucket.
	ESView string `json:"es_view" yaml:"es_view"`
	SPView string `json:"sp_view" yaml:"sp_view"`

	Production      bool `json:"production" yaml:"production"`
	ResolveMetadata bool `json:"resolve_metadata" yaml:"resolve_metadata"`

	// Bucket holding protocol and publication records.
	ProtocolsOrg     string `json:"protocols_org" yaml:"protocols_org"`
	ProtocolsProject string `json:"protocols_project" yaml:"protocols_project"`

	SnapshotDir string `json:"snapshot_dir,omitempty" yaml:"snapshot_dir,omitempty"`
	PostgresDSN string `json:"-" yaml:"postgres_dsn,omitempty"`
}

// Supported backend names.
const (
	BackendNexus    = "nexus"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Defaults matching the production deployment.
const (
	DefaultOrg              = "bbp"
	DefaultProject          = "atlas"
	DefaultESView           = "https://bbp.epfl.ch/neurosciencegraph/data/views/aggreg-es/sbo"
	DefaultSPView           = "https://bbp.epfl.ch/neurosciencegraph/data/views/aggreg-sp/sbo"
	DefaultProtocolsOrg     = "bbp"
	DefaultProtocolsProject = "protocols"
)

// Config validation errors. Each wraps ErrConfig.
var (
	ErrBackendEmpty       = fmt.Errorf("%w: backend must not be empty", ErrConfig)
	ErrBackendUnknown     = fmt.Errorf("%w: unknown backend", ErrConfig)
	ErrBucketEmpty        = fmt.Errorf("%w: org and project must not be empty", ErrConfig)
	ErrTokenMissing       = fmt.Errorf("%w: token is required for the nexus backend", ErrConfig)
	ErrSnapshotDirMissing = fmt.Errorf("%w: snapshot_dir is required for the sqlite backend", ErrConfig)
	ErrDSNMissing         = fmt.Errorf("%w: postgres_dsn is required for the postgres backend", ErrConfig)
)

var knownBackends = map[string]bool{
	BackendNexus:    true,
	BackendSQLite:   true,
	BackendPostgres: true,
}

// DefaultConfig returns the production configuration without a token.
func DefaultConfig() Config {
	return Config{
		Backend:          BackendNexus,
		Org:              DefaultOrg,
		Project:          DefaultProject,
		ESView:           DefaultESView,
		SPView:           DefaultSPView,
		Production:       true,
		ResolveMetadata:  true,
		ProtocolsOrg:     DefaultProtocolsOrg,
		ProtocolsProject: DefaultProtocolsProject,
	}
}

// Bucket returns the search bucket as "org/project".
func (c Config) Bucket() string {
	return c.Org + "/" + c.Project
}

// ProtocolsBucket returns the protocols bucket as "org/project".
func (c Config) ProtocolsBucket() string {
	return c.ProtocolsOrg + "/" + c.ProtocolsProject
}

// Validate checks that the Config is well-formed. It returns one of the
// sentinel errors above on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return fmt.Errorf("%w %q", ErrBackendUnknown, c.Backend)
	}
	if c.Org == "" || c.Project == "" {
		return ErrBucketEmpty
	}
	if c.ResolveMetadata && (c.ProtocolsOrg == "" || c.ProtocolsProject == "") {
		return ErrBucketEmpty
	}
	switch c.Backend {
	case BackendNexus:
		if c.Token == "" {
			return ErrTokenMissing
		}
	case BackendSQLite:
		if c.SnapshotDir == "" {
			return ErrSnapshotDirMissing
		}
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return ErrDSNMissing
		}
	}
	return nil
}

// IsConfigError reports whether err is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfig)
}
