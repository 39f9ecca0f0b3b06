package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/protofetch/internal/blob"
	"github.com/mesh-intelligence/protofetch/internal/paths"
	"github.com/mesh-intelligence/protofetch/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "PROTOFETCH"
)

// Config keys. Each is also readable from PROTOFETCH_<KEY>.
const (
	keyBackend          = "backend"
	keyToken            = "token"
	keyOrg              = "org"
	keyProject          = "project"
	keyESView           = "es_view"
	keySPView           = "sp_view"
	keyProduction       = "production"
	keyResolveMetadata  = "resolve_metadata"
	keyProtocolsOrg     = "protocols_org"
	keyProtocolsProject = "protocols_project"
	keySnapshotDir      = "snapshot_dir"
	keyPostgresDSN      = "postgres_dsn"
	keyMetricsFile      = "metrics_file"
	keyRecordSnapshot   = "record_snapshot"
	keyLogLevel         = "log_level"
	keyCompact          = "compact"
	keyS3Region         = "s3_region"
	keyS3Endpoint       = "s3_endpoint"
	keyS3PathStyle      = "s3_path_style"
)

// flagKeys maps persistent flag names to config keys.
var flagKeys = map[string]string{
	"backend":           keyBackend,
	"token":             keyToken,
	"org":               keyOrg,
	"project":           keyProject,
	"es-view":           keyESView,
	"sp-view":           keySPView,
	"production":        keyProduction,
	"resolve-metadata":  keyResolveMetadata,
	"protocols-org":     keyProtocolsOrg,
	"protocols-project": keyProtocolsProject,
	"snapshot-dir":      keySnapshotDir,
	"postgres-dsn":      keyPostgresDSN,
	"metrics-file":      keyMetricsFile,
	"record-snapshot":   keyRecordSnapshot,
	"log-level":         keyLogLevel,
	"compact":           keyCompact,
}

func (a *app) bindFlags(root *cobra.Command) {
	d := types.DefaultConfig()
	f := root.PersistentFlags()
	f.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	f.String("backend", d.Backend, "entity source: nexus, sqlite or postgres")
	f.String("token", "", "Nexus access token")
	f.String("org", d.Org, "organization of the search bucket")
	f.String("project", d.Project, "project of the search bucket")
	f.String("es-view", d.ESView, "Elasticsearch view of the search bucket")
	f.String("sp-view", d.SPView, "SPARQL view of the search bucket")
	f.Bool("production", d.Production, "use the production deployment (false selects staging)")
	f.Bool("resolve-metadata", d.ResolveMetadata, "resolve protocol and publication metadata")
	f.String("protocols-org", d.ProtocolsOrg, "organization of the protocols bucket")
	f.String("protocols-project", d.ProtocolsProject, "project of the protocols bucket")
	f.String("snapshot-dir", "", "JSONL snapshot directory for the sqlite backend")
	f.String("postgres-dsn", "", "connection string for the postgres backend")
	f.String("metrics-file", "", "write Prometheus retrieval metrics to this file")
	f.String("record-snapshot", "", "record every retrieved document into this JSONL snapshot directory")
	f.String("log-level", "", "log level: debug, info, warn or error (default warn)")
	f.Bool("compact", false, "print JSON on a single line")

	f.VisitAll(func(fl *pflag.Flag) {
		if key, ok := flagKeys[fl.Name]; ok {
			_ = a.v.BindPFlag(key, fl)
		}
	})
}

// loadConfig reads config.yaml from dir into the app's viper instance.
// A missing config.yaml is not an error.
func (a *app) loadConfig(dir string) error {
	v := a.v
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	_ = v.BindEnv(keyToken, envPrefix+"_TOKEN", "NEXUS_TOKEN")
	v.SetDefault(keyS3Region, "us-east-1")

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("%w: read config: %v", types.ErrConfig, err)
	}
	return nil
}

// queryConfig assembles and validates the configuration of a query command.
func (a *app) queryConfig() (types.Config, error) {
	v := a.v
	cfg := types.Config{
		Backend:          v.GetString(keyBackend),
		Token:            v.GetString(keyToken),
		Org:              v.GetString(keyOrg),
		Project:          v.GetString(keyProject),
		ESView:           v.GetString(keyESView),
		SPView:           v.GetString(keySPView),
		Production:       v.GetBool(keyProduction),
		ResolveMetadata:  v.GetBool(keyResolveMetadata),
		ProtocolsOrg:     v.GetString(keyProtocolsOrg),
		ProtocolsProject: v.GetString(keyProtocolsProject),
		SnapshotDir:      v.GetString(keySnapshotDir),
		PostgresDSN:      v.GetString(keyPostgresDSN),
	}
	if cfg.Backend == types.BackendSQLite {
		dir, err := paths.ResolveSnapshotDir(cfg.SnapshotDir, "")
		if err != nil {
			return cfg, fmt.Errorf("resolve snapshot dir: %w", err)
		}
		cfg.SnapshotDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (a *app) s3Config() blob.S3Config {
	return blob.S3Config{
		Region:    a.v.GetString(keyS3Region),
		Endpoint:  a.v.GetString(keyS3Endpoint),
		PathStyle: a.v.GetBool(keyS3PathStyle),
	}
}
