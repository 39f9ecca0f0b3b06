// Package logging builds the zerolog loggers used by protofetch.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EnvLevel names the environment variable holding the default log level.
const EnvLevel = "PROTOFETCH_LOG_LEVEL"

// DefaultLevel is used when neither a flag nor EnvLevel sets a level.
const DefaultLevel = zerolog.WarnLevel

// ParseLevel maps a level name to a zerolog level. The empty string yields
// DefaultLevel.
func ParseLevel(s string) (zerolog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return DefaultLevel, nil
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return DefaultLevel, fmt.Errorf("parse log level %q: %w", s, err)
	}
	return lvl, nil
}

// New returns a console logger writing to w at the given level. Query output
// goes to stdout, so callers pass os.Stderr here.
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal(w),
	}
	return zerolog.New(output).Level(level).With().Timestamp().Str("app", "protofetch").Logger()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
