// Package provenance retrieves the experimental protocols behind a
// knowledge-graph entity by walking its generation and derivation links.
//
// A Service answers three queries: the provenance of a single entity, of an
// electrical model together with the traces and morphology its workflow
// used, and of a composite morpho-electrical model.
package provenance

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// Service composes accessors, walker, enricher and navigators into the
// supported queries. Each call builds its own walker; nothing is shared
// between calls.
type Service struct {
	search    types.Accessor
	protocols types.Accessor
	resolve   bool
	log       zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithResolveMetadata selects whether protocol and publication metadata is
// fetched (the default) or protocols are reported as bare references.
func WithResolveMetadata(resolve bool) Option {
	return func(s *Service) { s.resolve = resolve }
}

// WithLogger sets the logger used to report discovered provenance.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// New returns a Service reading entities from search and protocol records
// from protocols. protocols may be nil when metadata resolution is disabled.
func New(search, protocols types.Accessor, opts ...Option) *Service {
	s := &Service{
		search:    search,
		protocols: protocols,
		resolve:   true,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.protocols == nil {
		s.resolve = false
	}
	return s
}

// Protocols returns the provenance tree of a single entity (a morphology,
// trace or electrical model).
func (s *Service) Protocols(ctx context.Context, id string) (*types.ProvenanceResult, error) {
	return s.newQuery().walker.Walk(ctx, id)
}

// EModel returns the provenance of an electrical model, its extraction
// traces and the morphology of its configuration.
func (s *Service) EModel(ctx context.Context, id string) (*types.EModelEntry, error) {
	return s.newQuery().emodel(ctx, id)
}

// MEModel returns the provenance of a composite model, its morphology and
// its electrical model.
func (s *Service) MEModel(ctx context.Context, id string) (*types.MEModelEntry, error) {
	return s.newQuery().memodel(ctx, id)
}

// query holds the per-call state shared by every entry of one payload.
type query struct {
	search types.Accessor
	walker *Walker
	log    zerolog.Logger
}

func (s *Service) newQuery() *query {
	var enricher *Enricher
	if s.resolve {
		enricher = NewEnricher(s.protocols)
	}
	return &query{
		search: s.search,
		walker: NewWalker(s.search, enricher, s.log),
		log:    s.log,
	}
}

// entry walks id and wraps the result with the header for typ.
func (q *query) entry(ctx context.Context, id, typ string) (types.Entry, error) {
	res, err := q.walker.Walk(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}
	return types.NewEntry(id, typ, res), nil
}
