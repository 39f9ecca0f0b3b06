package types

import (
	"errors"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.Token = "secret"

	with := func(mut func(*Config)) Config {
		c := valid
		mut(&c)
		return c
	}

	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  with(func(c *Config) { c.Backend = "" }),
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  with(func(c *Config) { c.Backend = "mongodb" }),
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "empty project returns ErrBucketEmpty",
			config:  with(func(c *Config) { c.Project = "" }),
			wantErr: ErrBucketEmpty,
		},
		{
			name:    "empty protocols bucket with resolution returns ErrBucketEmpty",
			config:  with(func(c *Config) { c.ProtocolsOrg = "" }),
			wantErr: ErrBucketEmpty,
		},
		{
			name: "empty protocols bucket without resolution is valid",
			config: with(func(c *Config) {
				c.ProtocolsOrg = ""
				c.ResolveMetadata = false
			}),
		},
		{
			name:    "nexus without token returns ErrTokenMissing",
			config:  with(func(c *Config) { c.Token = "" }),
			wantErr: ErrTokenMissing,
		},
		{
			name: "sqlite without snapshot dir returns ErrSnapshotDirMissing",
			config: with(func(c *Config) {
				c.Backend = BackendSQLite
				c.Token = ""
			}),
			wantErr: ErrSnapshotDirMissing,
		},
		{
			name: "sqlite with snapshot dir needs no token",
			config: with(func(c *Config) {
				c.Backend = BackendSQLite
				c.Token = ""
				c.SnapshotDir = "/tmp/snapshot"
			}),
		},
		{
			name:    "postgres without dsn returns ErrDSNMissing",
			config:  with(func(c *Config) { c.Backend = BackendPostgres }),
			wantErr: ErrDSNMissing,
		},
		{
			name:   "valid nexus config",
			config: valid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %v, got nil", tt.wantErr)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
			if !IsConfigError(err) {
				t.Fatalf("expected %v to be a configuration error", err)
			}
		})
	}
}

func TestConfigBuckets(t *testing.T) {
	c := DefaultConfig()
	if got := c.Bucket(); got != "bbp/atlas" {
		t.Fatalf("Bucket() = %q", got)
	}
	if got := c.ProtocolsBucket(); got != "bbp/protocols" {
		t.Fatalf("ProtocolsBucket() = %q", got)
	}
}
