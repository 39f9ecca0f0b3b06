// Package paths resolves the configuration and snapshot directory locations
// used by the protofetch CLI.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory name used under the platform config and data roots.
const AppName = "protofetch"

// ConfigFileName is the name of the YAML configuration file inside the
// configuration directory.
const ConfigFileName = "config.yaml"

// Environment variable names for directory overrides.
const (
	EnvConfigDir   = "PROTOFETCH_CONFIG_DIR"
	EnvSnapshotDir = "PROTOFETCH_SNAPSHOT_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/protofetch (fallback ~/.config/protofetch)
// macOS:   ~/Library/Application Support/protofetch
// Windows: %APPDATA%/protofetch
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		return xdgDir("XDG_CONFIG_HOME", ".config")
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultSnapshotDir returns the platform-specific default directory holding
// JSON Lines snapshots of the knowledge graph.
//
// Linux:   $XDG_DATA_HOME/protofetch/snapshots (fallback ~/.local/share/protofetch/snapshots)
// macOS:   ~/Library/Application Support/protofetch/snapshots
// Windows: %APPDATA%/protofetch/snapshots
func DefaultSnapshotDir() (string, error) {
	if runtime.GOOS == "linux" {
		base, err := xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
		if err != nil {
			return "", err
		}
		return filepath.Join(base, "snapshots"), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName, "snapshots"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}

// ResolveConfigDir returns the configuration directory following the precedence
// chain: flag > PROTOFETCH_CONFIG_DIR env > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultConfigDir()
}

// ResolveSnapshotDir returns the snapshot directory following the precedence
// chain: flag > configValue > PROTOFETCH_SNAPSHOT_DIR env > DefaultSnapshotDir().
func ResolveSnapshotDir(flag, configValue string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvSnapshotDir); env != "" {
		return filepath.Abs(env)
	}
	return DefaultSnapshotDir()
}

// ConfigFile returns the path of the configuration file inside dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}
