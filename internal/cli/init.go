package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/protofetch/internal/paths"
	"github.com/mesh-intelligence/protofetch/pkg/types"
)

func (a *app) newInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml",
		Long: "Create the configuration directory and write config.yaml with the\n" +
			"production defaults. An existing file is left alone unless --force is set.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := paths.ConfigFile(a.configDir)
			written, err := writeConfigIfMissing(path, force)
			if err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			if written {
				fmt.Fprintf(a.stdout, "wrote %s\n", path)
			} else {
				fmt.Fprintf(a.stdout, "%s already exists\n", path)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config.yaml")
	return cmd
}

const configHeader = "# protofetch configuration\n" +
	"# Every key can also be set with a PROTOFETCH_<KEY> environment variable\n" +
	"# or the matching command-line flag.\n"

// writeConfigIfMissing creates config.yaml with default values. It returns
// false without writing when the file exists and force is unset.
func writeConfigIfMissing(path string, force bool) (bool, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return false, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	cfg := types.DefaultConfig()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	return true, os.WriteFile(path, append([]byte(configHeader), data...), 0o600)
}
