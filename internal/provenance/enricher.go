package provenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// Enricher resolves protocol references to their metadata and linked
// publication. Results are memoised for the lifetime of the Enricher.
type Enricher struct {
	protocols types.Accessor
	seen      map[string]types.ProtocolInfo
}

// NewEnricher returns an Enricher reading protocols and publications from
// the given accessor.
func NewEnricher(protocols types.Accessor) *Enricher {
	return &Enricher{
		protocols: protocols,
		seen:      make(map[string]types.ProtocolInfo),
	}
}

// Enrich returns the protocol metadata for id. A protocol or publication
// missing from the graph is reported in-band, never as an error.
func (e *Enricher) Enrich(ctx context.Context, id string) (types.ProtocolInfo, error) {
	if info, ok := e.seen[id]; ok {
		return info, nil
	}

	protocol, err := e.retrieve(ctx, id)
	if err != nil {
		return types.ProtocolInfo{}, fmt.Errorf("retrieve protocol %s: %w", id, err)
	}

	found := protocol != nil
	info := types.ProtocolInfo{ID: id, Found: &found}
	if protocol == nil {
		e.seen[id] = info
		return info, nil
	}

	ref, ok := protocol.Publication.Get()
	if ok {
		info.AdditionalInformation = ref.Extra
		publication, err := e.retrieve(ctx, ref.ID)
		if err != nil {
			return types.ProtocolInfo{}, fmt.Errorf("retrieve publication %s of protocol %s: %w", ref.ID, id, err)
		}
		if publication != nil {
			if url, ok := publication.ContentURL(); ok {
				info.Publication = &url
			}
			if len(info.AdditionalInformation) == 0 {
				info.AdditionalInformation = publication.Extra
			}
		}
	}

	e.seen[id] = info
	return info, nil
}

// retrieve returns nil without error when id is absent.
func (e *Enricher) retrieve(ctx context.Context, id string) (*types.Entity, error) {
	entity, err := e.protocols.Retrieve(ctx, id, false)
	if errors.Is(err, types.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entity, nil
}
