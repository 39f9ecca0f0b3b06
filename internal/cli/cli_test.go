package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

const atlasSnapshot = `{"@id": "M", "@type": "MEModel", "hasPart": [{"@id": "morph1", "@type": "NeuronMorphology"}, {"@id": "em1", "@type": "EModel"}]}
{"@id": "em1", "@type": "EModel", "generation": {"activity": {"followedWorkflow": {"@id": "wf1"}}}}
{"@id": "wf1", "@type": "EModelWorkflow", "hasPart": [{"@id": "etc1", "@type": "ExtractionTargetsConfiguration"}, {"@id": "conf1", "@type": "EModelConfiguration"}]}
{"@id": "etc1", "@type": "ExtractionTargetsConfiguration", "uses": [{"@id": "trace1", "@type": "Trace"}, {"@id": "trace2", "@type": "Trace"}]}
{"@id": "conf1", "@type": "EModelConfiguration", "uses": {"@id": "morph1", "@type": "NeuronMorphology"}}
{"@id": "morph1", "@type": "NeuronMorphology", "generation": {"activity": {"hadProtocol": {"@id": "slicing"}}}, "derivation": {"entity": "raw1"}}
{"@id": "raw1", "@type": "NeuronMorphology", "generation": {"activity": {"hadProtocol": [{"@id": "staining"}]}}}
{"@id": "trace1", "@type": "Trace", "generation": {"activity": {"hadProtocol": {"@id": "patch-clamp"}}}}
{"@id": "trace2", "@type": "Trace"}
{"@id": "broken", "@type": "MEModel", "hasPart": [{"@id": "morph1", "@type": "NeuronMorphology"}]}
`

const protocolsSnapshot = `{"@id": "slicing", "@type": "Protocol", "publication": {"@id": "pub1", "extra": "Figure 2"}}
{"@id": "pub1", "@type": "Publication", "distribution": {"contentUrl": "https://example.org/slicing.pdf"}}
{"@id": "staining", "@type": "Protocol"}
`

type env struct {
	configDir   string
	snapshotDir string
}

func newEnv(t *testing.T) env {
	t.Helper()
	t.Setenv("PROTOFETCH_TOKEN", "")
	t.Setenv("NEXUS_TOKEN", "")
	t.Setenv("PROTOFETCH_BACKEND", "")
	t.Setenv("PROTOFETCH_LOG_LEVEL", "")
	root := t.TempDir()
	e := env{
		configDir:   filepath.Join(root, "config"),
		snapshotDir: filepath.Join(root, "snapshot"),
	}
	require.NoError(t, os.MkdirAll(e.snapshotDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(e.snapshotDir, "bbp__atlas.jsonl"), []byte(atlasSnapshot), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(e.snapshotDir, "bbp__protocols.jsonl"), []byte(protocolsSnapshot), 0o644))
	return e
}

func (e env) run(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", e.configDir}, args...)
	code := Run(full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (e env) query(args ...string) (int, string, string) {
	return e.run(append([]string{"--backend", "sqlite", "--snapshot-dir", e.snapshotDir}, args...)...)
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &m), out)
	return m
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	code, out, _ := e.run("version")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "protofetch v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestInitWritesDefaultConfig(t *testing.T) {
	e := newEnv(t)
	code, out, _ := e.run("init")
	require.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "wrote")

	data, err := os.ReadFile(filepath.Join(e.configDir, "config.yaml"))
	require.NoError(t, err)
	var cfg types.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, types.DefaultConfig(), cfg)

	code, out, _ = e.run("init")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "already exists")

	code, out, _ = e.run("init", "--force")
	assert.Equal(t, exitSuccess, code)
	assert.Contains(t, out, "wrote")
}

func TestMEModelFromSnapshot(t *testing.T) {
	e := newEnv(t)
	code, out, stderr := e.query("memodel", "M")
	require.Equal(t, exitSuccess, code, stderr)

	res := decode(t, out)
	assert.Equal(t, "M", res["id"])
	assert.Equal(t, map[string]any{"type": "MEModel", "type_definition": ""}, res["about"])
	assert.Equal(t, true, res["found"])

	morph := res["morphology"].(map[string]any)
	assert.Equal(t, "morph1", morph["id"])
	assert.Equal(t, types.TypeDefinition(types.TypeNeuronMorphology), morph["about"].(map[string]any)["type_definition"])
	assert.Equal(t, []any{map[string]any{
		"id":                    "slicing",
		"found":                 true,
		"publication":           "https://example.org/slicing.pdf",
		"additionalInformation": "Figure 2",
	}}, morph["protocols"])
	derivs := morph["derivations"].([]any)
	require.Len(t, derivs, 1)
	assert.Equal(t, []any{map[string]any{"id": "staining", "found": true}}, derivs[0].(map[string]any)["protocols"])

	emodel := res["emodel"].(map[string]any)
	traces := emodel["traces"].([]any)
	require.Len(t, traces, 2)
	assert.Equal(t, []any{map[string]any{"id": "patch-clamp", "found": false}}, traces[0].(map[string]any)["protocols"])
	assert.Equal(t, []any{}, traces[1].(map[string]any)["protocols"])
	assert.Equal(t, "morph1", emodel["morphology"].(map[string]any)["id"])
}

func TestResolveMetadataDisabled(t *testing.T) {
	e := newEnv(t)
	code, out, stderr := e.query("--resolve-metadata=false", "protocols", "morph1")
	require.Equal(t, exitSuccess, code, stderr)
	res := decode(t, out)
	assert.Equal(t, []any{map[string]any{"id": "slicing"}}, res["protocols"])
}

func TestProtocolsMissingEntityIsInBand(t *testing.T) {
	e := newEnv(t)
	code, out, _ := e.query("protocols", "nope")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, map[string]any{"found": false, "protocols": []any{}, "derivations": []any{}}, decode(t, out))
}

func TestCompactOutput(t *testing.T) {
	e := newEnv(t)
	code, out, _ := e.query("--compact", "protocols", "raw1")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestConfigFileSelectsBackend(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.MkdirAll(e.configDir, 0o755))
	cfg := fmt.Sprintf("backend: sqlite\nsnapshot_dir: %s\nresolve_metadata: false\n", e.snapshotDir)
	require.NoError(t, os.WriteFile(filepath.Join(e.configDir, "config.yaml"), []byte(cfg), 0o644))

	code, out, stderr := e.run("protocols", "trace1")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Equal(t, []any{map[string]any{"id": "patch-clamp"}}, decode(t, out)["protocols"])

	t.Setenv("PROTOFETCH_RESOLVE_METADATA", "true")
	code, out, _ = e.run("protocols", "trace1")
	require.Equal(t, exitSuccess, code)
	assert.Equal(t, []any{map[string]any{"id": "patch-clamp", "found": false}}, decode(t, out)["protocols"])
}

func TestMetricsAndRecordedSnapshot(t *testing.T) {
	e := newEnv(t)
	out := t.TempDir()
	metricsFile := filepath.Join(out, "protofetch.prom")
	recordDir := filepath.Join(out, "recorded")

	code, first, stderr := e.query("--metrics-file", metricsFile, "--record-snapshot", recordDir, "emodel", "em1")
	require.Equal(t, exitSuccess, code, stderr)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `protofetch_retrievals_total{outcome="found",source="search"}`)
	assert.Contains(t, string(data), `protofetch_retrievals_total{outcome="not_found",source="protocols"}`)

	assert.FileExists(t, filepath.Join(recordDir, "bbp__atlas.jsonl"))
	assert.FileExists(t, filepath.Join(recordDir, "bbp__protocols.jsonl"))

	code, replay, stderr := e.run("--backend", "sqlite", "--snapshot-dir", recordDir, "emodel", "em1")
	require.Equal(t, exitSuccess, code, stderr)
	assert.JSONEq(t, first, replay)
}

func TestExitCodes(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name    string
		args    []string
		want    int
		message string
	}{
		{"schema violation", []string{"--backend", "sqlite", "--snapshot-dir", e.snapshotDir, "memodel", "broken"}, exitUserError, "schema violation"},
		{"required entity missing", []string{"--backend", "sqlite", "--snapshot-dir", e.snapshotDir, "emodel", "nope"}, exitUserError, "could not be found"},
		{"missing token", []string{"protocols", "x"}, exitUserError, "token is required"},
		{"unknown backend", []string{"--backend", "mongo", "protocols", "x"}, exitUserError, "unknown backend"},
		{"absent snapshot dir", []string{"--backend", "sqlite", "--snapshot-dir", filepath.Join(e.snapshotDir, "absent"), "protocols", "x"}, exitUserError, "snapshot directory"},
		{"missing argument", []string{"protocols"}, exitUserError, "accepts 1 arg"},
		{"unknown flag", []string{"protocols", "--bogus", "x"}, exitUserError, "unknown flag"},
		{"unknown command", []string{"frobnicate"}, exitUserError, "unknown command"},
		{"bad log level", []string{"--log-level", "loud", "version"}, exitUserError, "log level"},
		{"file without destination", []string{"--token", "t", "file", "http://x/f"}, exitUserError, "destination"},
		{"file metadata with destination", []string{"--token", "t", "file", "--metadata-only", "--dest", "out", "http://x/f"}, exitUserError, "destination"},
		{"file without token", []string{"file", "--metadata-only", "http://x/f"}, exitUserError, "token is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, stderr := e.run(tt.args...)
			assert.Equal(t, tt.want, code)
			assert.Contains(t, stderr, tt.message)
		})
	}
}

func TestExitCodeClassification(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitUserError, exitCode(usagef("bad")))
	assert.Equal(t, exitUserError, exitCode(fmt.Errorf("wrapped: %w", types.ErrSchemaViolation)))
	assert.Equal(t, exitUserError, exitCode(types.ErrTokenMissing))
	assert.Equal(t, exitSysError, exitCode(errors.New("connection refused")))
}

func TestFileCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Header.Get("Accept") == "application/ld+json" {
			_, _ = w.Write([]byte(`{"@id": "f1", "_filename": "m1.swc", "note": "<raw>"}`))
			return
		}
		_, _ = w.Write([]byte("swc content"))
	}))
	t.Cleanup(srv.Close)
	e := newEnv(t)

	code, out, stderr := e.run("--token", "tok", "file", "--metadata-only", srv.URL+"/files/m1.swc")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Contains(t, out, `"<raw>"`, "HTML characters are not escaped")
	assert.Equal(t, "m1.swc", decode(t, out)["_filename"])

	dest := filepath.Join(t.TempDir(), "downloads", "m1.swc")
	code, out, stderr = e.run("--token", "tok", "file", "--dest", dest, srv.URL+"/files/m1.swc")
	require.Equal(t, exitSuccess, code, stderr)
	assert.Equal(t, "m1.swc", decode(t, out)["key"])
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "swc content", string(got))

	code, _, stderr = e.run("--token", "wrong", "file", "--metadata-only", srv.URL+"/files/m1.swc")
	assert.Equal(t, exitSysError, code)
	assert.Contains(t, stderr, "401")
}
