package provenance

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

func TestEnrich(t *testing.T) {
	protocols := newGraph(t,
		`{"@id": "bare", "@type": "Protocol"}`,
		`{"@id": "published", "@type": "Protocol", "publication": {"@id": "pub", "extra": {"doi": "10.1/x"}}}`,
		`{"@id": "pub", "@type": "Publication", "distribution": [{"name": "a"}, {"contentUrl": "https://example.org/a.pdf"}]}`,
		`{"@id": "dangling", "@type": "Protocol", "publication": {"@id": "nowhere", "extra": "note"}}`,
		`{"@id": "pub-extra", "@type": "Protocol", "publication": "pub2"}`,
		`{"@id": "pub2", "@type": "Publication", "distribution": {"contentUrl": "https://example.org/b.pdf"}, "extra": "from publication"}`,
	)

	tests := []struct {
		name string
		id   string
		want types.ProtocolInfo
	}{
		{
			name: "missing protocol",
			id:   "unknown",
			want: types.ProtocolInfo{ID: "unknown", Found: boolPtr(false)},
		},
		{
			name: "protocol without publication",
			id:   "bare",
			want: types.ProtocolInfo{ID: "bare", Found: boolPtr(true)},
		},
		{
			name: "protocol with publication",
			id:   "published",
			want: types.ProtocolInfo{
				ID:                    "published",
				Found:                 boolPtr(true),
				Publication:           strPtr("https://example.org/a.pdf"),
				AdditionalInformation: json.RawMessage(`{"doi": "10.1/x"}`),
			},
		},
		{
			name: "unresolvable publication omits url",
			id:   "dangling",
			want: types.ProtocolInfo{
				ID:                    "dangling",
				Found:                 boolPtr(true),
				AdditionalInformation: json.RawMessage(`"note"`),
			},
		},
		{
			name: "extra falls back to publication",
			id:   "pub-extra",
			want: types.ProtocolInfo{
				ID:                    "pub-extra",
				Found:                 boolPtr(true),
				Publication:           strPtr("https://example.org/b.pdf"),
				AdditionalInformation: json.RawMessage(`"from publication"`),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEnricher(protocols).Enrich(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want.ID, got.ID)
			assert.Equal(t, tt.want.Found, got.Found)
			assert.Equal(t, tt.want.Publication, got.Publication)
			if tt.want.AdditionalInformation == nil {
				assert.Empty(t, got.AdditionalInformation)
			} else {
				assert.JSONEq(t, string(tt.want.AdditionalInformation), string(got.AdditionalInformation))
			}
		})
	}
}

func TestEnrichUsesOwnBucket(t *testing.T) {
	protocols := newGraph(t, `{"@id": "p", "publication": "pub"}`, `{"@id": "pub"}`)
	_, err := NewEnricher(protocols).Enrich(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false}, protocols.crosses)
}

func TestEnrichMemoises(t *testing.T) {
	protocols := newGraph(t, `{"@id": "p"}`)
	e := NewEnricher(protocols)
	for i := 0; i < 3; i++ {
		_, err := e.Enrich(context.Background(), "p")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, protocols.calls["p"])
}

func TestEnrichPropagatesBackendErrors(t *testing.T) {
	protocols := newGraph(t, `{"@id": "p", "publication": "pub"}`)
	protocols.failOn = "pub"
	_, err := NewEnricher(protocols).Enrich(context.Background(), "p")
	assert.ErrorIs(t, err, errBackend)
}

func TestEnrichJSONShape(t *testing.T) {
	protocols := newGraph(t, `{"@id": "p"}`)
	info, err := NewEnricher(protocols).Enrich(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "p", "found": true}, toJSON(t, info))
}
