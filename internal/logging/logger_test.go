package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{in: "", want: DefaultLevel},
		{in: "debug", want: zerolog.DebugLevel},
		{in: " INFO ", want: zerolog.InfoLevel},
		{in: "warn", want: zerolog.WarnLevel},
		{in: "error", want: zerolog.ErrorLevel},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.WarnLevel)

	logger.Info().Msg("resource has protocols")
	assert.Empty(t, buf.String())

	logger.Warn().Str("id", "a").Msg("derivation cycle")
	out := buf.String()
	assert.Contains(t, out, "derivation cycle")
	assert.Contains(t, out, "app=protofetch")
	assert.Contains(t, out, "id=a")
}
