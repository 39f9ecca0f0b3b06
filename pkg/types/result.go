package types

import "encoding/json"

// ProvenanceResult is the outcome of walking one entity's provenance.
type ProvenanceResult struct {
	Found bool `json:"found"`
	// Cycle marks an entity reached again through its own derivation chain;
	// its provenance is reported where it was first visited.
	Cycle       bool               `json:"cycle,omitempty"`
	Protocols   []ProtocolInfo     `json:"protocols"`
	Derivations []DerivationResult `json:"derivations"`
}

// NotFoundResult is the in-band result for an identifier absent from the graph.
func NotFoundResult() *ProvenanceResult {
	return &ProvenanceResult{
		Found:       false,
		Protocols:   []ProtocolInfo{},
		Derivations: []DerivationResult{},
	}
}

// DerivationResult is the nested provenance of one ancestor.
type DerivationResult struct {
	ID string `json:"id"`
	*ProvenanceResult
}

// ProtocolInfo describes one protocol referenced by a generation activity.
// Found is nil for bare references emitted without metadata resolution.
type ProtocolInfo struct {
	ID                    string          `json:"id"`
	Found                 *bool           `json:"found,omitempty"`
	Publication           *string         `json:"publication,omitempty"`
	AdditionalInformation json.RawMessage `json:"additionalInformation,omitempty"`
}

// BareProtocol returns an unresolved protocol reference.
func BareProtocol(id string) ProtocolInfo {
	return ProtocolInfo{ID: id}
}

// About is the descriptive header of an assembled entry.
type About struct {
	Type           string `json:"type"`
	TypeDefinition string `json:"type_definition"`
}

// Entry is the provenance of one typed entity with its descriptive header.
type Entry struct {
	About About  `json:"about"`
	ID    string `json:"id"`
	ProvenanceResult
}

// NewEntry builds an entry for id of the given declared type.
func NewEntry(id, typ string, res *ProvenanceResult) Entry {
	e := Entry{
		About: About{Type: typ, TypeDefinition: TypeDefinition(typ)},
		ID:    id,
	}
	if res != nil {
		e.ProvenanceResult = *res
	}
	return e
}

// EModelEntry is the result of the electrical-model query: the model's own
// provenance plus the traces used for feature extraction and the morphology
// declared by its configuration.
type EModelEntry struct {
	Entry
	Traces     []Entry `json:"traces"`
	Morphology Entry   `json:"morphology"`
}

// MEModelEntry is the result of the composite-model query.
type MEModelEntry struct {
	Entry
	Morphology Entry       `json:"morphology"`
	EModel     EModelEntry `json:"emodel"`
}
