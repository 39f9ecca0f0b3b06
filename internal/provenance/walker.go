package provenance

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// Walker collects the protocols attached to an entity's generation activity
// and repeats the collection on every ancestor reached through derivation.
//
// A Walker caches fetched documents and memoises completed results, and it
// tracks the identifiers on the current derivation path so a cyclic
// derivation chain terminates. A result is memoised only when no cycle in its
// subtree leads above it, and reused only when nothing it reaches is on the
// current path, so every result equals a fresh walk from the same id. It is
// not safe for concurrent use; build one per query.
type Walker struct {
	search   types.Accessor
	enricher *Enricher
	log      zerolog.Logger

	fetched map[string]*types.Entity // nil value: absent from the graph
	done    map[string]*walked
	onPath  map[string]int // id -> depth on the current path
}

// walked is one computed subtree. reach holds every id the subtree visited;
// low is the shallowest path depth a cycle inside it pointed back to.
type walked struct {
	res   *types.ProvenanceResult
	reach map[string]struct{}
	low   int
}

const noCycle = math.MaxInt

// NewWalker returns a Walker reading entities from search. When enricher is
// nil protocols are reported as bare references.
func NewWalker(search types.Accessor, enricher *Enricher, log zerolog.Logger) *Walker {
	return &Walker{
		search:   search,
		enricher: enricher,
		log:      log,
		fetched:  make(map[string]*types.Entity),
		done:     make(map[string]*walked),
		onPath:   make(map[string]int),
	}
}

// Walk returns the provenance tree rooted at id. An id absent from the graph
// yields a result with Found unset; only transport failures are errors.
func (w *Walker) Walk(ctx context.Context, id string) (*types.ProvenanceResult, error) {
	n, err := w.walk(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return n.res, nil
}

func (w *Walker) walk(ctx context.Context, id string, path []string) (*walked, error) {
	if n, ok := w.done[id]; ok && !w.reachesPath(n) {
		// Cycles inside a memoised subtree close within it.
		return &walked{res: n.res, reach: n.reach, low: noCycle}, nil
	}
	if depth, ok := w.onPath[id]; ok {
		w.log.Warn().Str("id", id).Strs("path", path).Msg("derivation cycle, not descending")
		return &walked{
			res: &types.ProvenanceResult{
				Found:       true,
				Cycle:       true,
				Protocols:   []types.ProtocolInfo{},
				Derivations: []types.DerivationResult{},
			},
			reach: map[string]struct{}{id: {}},
			low:   depth,
		}, nil
	}

	entity, err := w.fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		n := &walked{res: types.NotFoundResult(), reach: map[string]struct{}{id: {}}, low: noCycle}
		w.done[id] = n
		return n, nil
	}

	depth := len(path)
	w.onPath[id] = depth
	defer delete(w.onPath, id)

	res := &types.ProvenanceResult{Found: true}
	n := &walked{res: res, reach: map[string]struct{}{id: {}}, low: noCycle}

	protocolIDs := types.IDs(entity.ProtocolRefs())
	if len(protocolIDs) > 0 {
		w.log.Info().Str("id", id).Strs("path", path).Strs("protocols", protocolIDs).Msg("resource has protocols")
	}
	res.Protocols = make([]types.ProtocolInfo, 0, len(protocolIDs))
	for _, pid := range protocolIDs {
		info, err := w.protocol(ctx, pid)
		if err != nil {
			return nil, err
		}
		res.Protocols = append(res.Protocols, info)
	}

	ancestorIDs := types.IDs(entity.DerivationRefs())
	if len(ancestorIDs) > 0 {
		w.log.Info().Str("id", id).Strs("path", path).Strs("derivations", ancestorIDs).Msg("resource has derivations, looking into their protocols")
	}
	res.Derivations = make([]types.DerivationResult, 0, len(ancestorIDs))
	childPath := append(slices.Clone(path), id)
	for _, aid := range ancestorIDs {
		nested, err := w.walk(ctx, aid, childPath)
		if err != nil {
			return nil, err
		}
		res.Derivations = append(res.Derivations, types.DerivationResult{ID: aid, ProvenanceResult: nested.res})
		maps.Copy(n.reach, nested.reach)
		n.low = min(n.low, nested.low)
	}

	if n.low >= depth {
		w.done[id] = n
	}
	return n, nil
}

// fetch retrieves id once per walker. A nil entity means id is absent.
func (w *Walker) fetch(ctx context.Context, id string) (*types.Entity, error) {
	if e, ok := w.fetched[id]; ok {
		return e, nil
	}
	entity, err := w.search.Retrieve(ctx, id, true)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("retrieve %s: %w", id, err)
	}
	if err != nil {
		entity = nil
	}
	w.fetched[id] = entity
	return entity, nil
}

// reachesPath reports whether a memoised subtree visits an id on the current
// path; reusing it there would skip a cycle cut a fresh walk makes.
func (w *Walker) reachesPath(n *walked) bool {
	for id := range n.reach {
		if _, ok := w.onPath[id]; ok {
			return true
		}
	}
	return false
}

func (w *Walker) protocol(ctx context.Context, id string) (types.ProtocolInfo, error) {
	if w.enricher == nil {
		return types.BareProtocol(id), nil
	}
	return w.enricher.Enrich(ctx, id)
}
