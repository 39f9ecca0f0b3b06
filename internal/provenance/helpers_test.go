package provenance

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// graph is an in-memory accessor over JSON-LD documents keyed by @id.
type graph struct {
	t       *testing.T
	docs    map[string]*types.Entity
	calls   map[string]int
	failOn  string
	crosses []bool
}

func newGraph(t *testing.T, docs ...string) *graph {
	t.Helper()
	g := &graph{t: t, docs: make(map[string]*types.Entity), calls: make(map[string]int)}
	for _, d := range docs {
		g.add(d)
	}
	return g
}

func (g *graph) add(doc string) {
	g.t.Helper()
	e, err := types.DecodeEntity([]byte(doc))
	require.NoError(g.t, err, "decode fixture %s", doc)
	require.NotEmpty(g.t, e.ID, "fixture without @id: %s", doc)
	g.docs[e.ID] = e
}

func (g *graph) Retrieve(_ context.Context, id string, crossBucket bool) (*types.Entity, error) {
	g.calls[id]++
	g.crosses = append(g.crosses, crossBucket)
	if id == g.failOn {
		return nil, errBackend
	}
	e, ok := g.docs[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return e, nil
}

var errBackend = errors.New("backend unavailable")

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

// toJSON round-trips v through encoding/json to compare payload shapes.
func toJSON(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}
