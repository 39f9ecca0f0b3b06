// Package cli implements the protofetch command-line interface.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/protofetch/internal/logging"
	"github.com/mesh-intelligence/protofetch/internal/paths"
	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// usageError marks errors caused by how the command was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}

// app is the state shared by the commands of one root command.
type app struct {
	v         *viper.Viper
	configDir string
	stdout    io.Writer
	stderr    io.Writer
	log       zerolog.Logger
}

// NewRootCmd creates the top-level "protofetch" command writing to the
// process stdout and stderr.
func NewRootCmd() *cobra.Command {
	return newRootCmd(os.Stdout, os.Stderr)
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{
		v:      viper.New(),
		stdout: stdout,
		stderr: stderr,
		log:    zerolog.Nop(),
	}

	root := &cobra.Command{
		Use:   "protofetch",
		Short: "Retrieve experimental protocol provenance from a Nexus knowledge graph",
		Long: "protofetch walks the generation and derivation links of neuroscience data\n" +
			"entities (morphologies, traces, electrical and composite models) and reports\n" +
			"the experimental protocols used to produce them, as JSON.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.preRun,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	a.bindFlags(root)

	root.AddCommand(a.newProtocolsCmd())
	root.AddCommand(a.newEModelCmd())
	root.AddCommand(a.newMEModelCmd())
	root.AddCommand(a.newFileCmd())
	root.AddCommand(a.newInitCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// preRun resolves the config directory, reads config.yaml and sets up
// logging before any subcommand runs.
func (a *app) preRun(cmd *cobra.Command, _ []string) error {
	dir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	a.configDir = dir
	if err := a.loadConfig(dir); err != nil {
		return err
	}

	level, err := logging.ParseLevel(a.v.GetString(keyLogLevel))
	if err != nil {
		return usageError{err}
	}
	a.log = logging.New(a.stderr, level)
	a.log.Debug().Str("command", cmd.Name()).Str("config_dir", dir).Msg("starting")
	return nil
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes protofetch with args and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "protofetch: %s\n", err)
	}
	return exitCode(err)
}

// exitCode maps an error to 0 (success), 1 (invocation, configuration or
// data-shape problem) or 2 (system failure).
func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue),
		errors.Is(err, types.ErrConfig),
		errors.Is(err, types.ErrSchemaViolation),
		errors.Is(err, types.ErrNotFound),
		strings.HasPrefix(err.Error(), "unknown command"):
		return exitUserError
	default:
		return exitSysError
	}
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}
