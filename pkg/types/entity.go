// Package types defines the knowledge-graph record model, the provenance
// result model, the Accessor interface, configuration and standard errors
// for protofetch.
package types

import (
	"encoding/json"
)

// Resource types the provenance queries navigate by.
const (
	TypeNeuronMorphology               = "NeuronMorphology"
	TypeTrace                          = "Trace"
	TypeEModel                         = "EModel"
	TypeMEModel                        = "MEModel"
	TypeEModelWorkflow                 = "EModelWorkflow"
	TypeExtractionTargetsConfiguration = "ExtractionTargetsConfiguration"
	TypeEModelConfiguration            = "EModelConfiguration"
	TypeProtocol                       = "Protocol"
	TypePublication                    = "Publication"
)

// ActivityKind discriminates the provenance links an activity carries.
type ActivityKind int

const (
	ActivityNeither ActivityKind = iota
	ActivityProtocol
	ActivityWorkflow
	ActivityBoth
)

// String returns the kind name.
func (k ActivityKind) String() string {
	switch k {
	case ActivityProtocol:
		return "protocol"
	case ActivityWorkflow:
		return "workflow"
	case ActivityBoth:
		return "protocol+workflow"
	default:
		return "neither"
	}
}

// Activity is the process record attached to a generation.
type Activity struct {
	HadProtocol      Optional[Refs] `json:"hadProtocol"`
	FollowedWorkflow Optional[Ref]  `json:"followedWorkflow"`
}

// Kind returns the discriminant for the links present on the activity.
func (a Activity) Kind() ActivityKind {
	switch {
	case a.HadProtocol.Present && a.FollowedWorkflow.Present:
		return ActivityBoth
	case a.HadProtocol.Present:
		return ActivityProtocol
	case a.FollowedWorkflow.Present:
		return ActivityWorkflow
	default:
		return ActivityNeither
	}
}

// HasProtocol reports whether the activity declares hadProtocol.
func (a Activity) HasProtocol() bool {
	k := a.Kind()
	return k == ActivityProtocol || k == ActivityBoth
}

// HasWorkflow reports whether the activity declares followedWorkflow.
func (a Activity) HasWorkflow() bool {
	k := a.Kind()
	return k == ActivityWorkflow || k == ActivityBoth
}

// Generation links an entity to the activity that produced it.
type Generation struct {
	Activity Optional[Activity] `json:"activity"`
}

// Derivation links an entity to the ancestor it was derived from.
type Derivation struct {
	Entity Optional[Ref] `json:"entity"`
}

// Distribution describes one downloadable representation of a resource.
type Distribution struct {
	ContentURL     string `json:"contentUrl,omitempty"`
	EncodingFormat string `json:"encodingFormat,omitempty"`
	Name           string `json:"name,omitempty"`
}

// Entity is a resource retrieved from the knowledge graph. Only the fields the
// provenance queries read are decoded; the full document is kept in Raw.
type Entity struct {
	ID           string
	Types        []string
	Generation   Optional[List[Generation]]
	Derivation   Optional[List[Derivation]]
	HasPart      Optional[Refs]
	Uses         Optional[Refs]
	Publication  Optional[Ref]
	Distribution List[Distribution]
	Extra        json.RawMessage
	Raw          json.RawMessage
}

type entityDoc struct {
	AtID         string                     `json:"@id"`
	ID           string                     `json:"id"`
	AtTypes      List[string]               `json:"@type"`
	Types        List[string]               `json:"type"`
	Generation   Optional[List[Generation]] `json:"generation"`
	Derivation   Optional[List[Derivation]] `json:"derivation"`
	HasPart      Optional[Refs]             `json:"hasPart"`
	Uses         Optional[Refs]             `json:"uses"`
	Publication  Optional[Ref]              `json:"publication"`
	Distribution List[Distribution]         `json:"distribution"`
	Extra        json.RawMessage            `json:"extra"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var doc entityDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*e = Entity{
		ID:           firstNonEmpty(doc.AtID, doc.ID),
		Types:        mergeTypes(doc.AtTypes, doc.Types),
		Generation:   doc.Generation,
		Derivation:   doc.Derivation,
		HasPart:      doc.HasPart,
		Uses:         doc.Uses,
		Publication:  doc.Publication,
		Distribution: doc.Distribution,
		Raw:          append(json.RawMessage(nil), data...),
	}
	if len(doc.Extra) > 0 && !isNull(doc.Extra) {
		e.Extra = doc.Extra
	}
	return nil
}

// MarshalJSON returns the original document when available.
func (e Entity) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return json.Marshal(map[string]any{"@id": e.ID, "@type": e.Types})
}

// DecodeEntity parses a JSON-LD document into an Entity.
func DecodeEntity(data []byte) (*Entity, error) {
	var e Entity
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ProtocolRefs returns the hadProtocol references of the first generation
// whose activity declares protocols. Later generations are ignored.
func (e *Entity) ProtocolRefs() []Ref {
	for _, g := range e.Generation.Value {
		act, ok := g.Activity.Get()
		if !ok || !act.HasProtocol() {
			continue
		}
		return act.HadProtocol.Value
	}
	return nil
}

// WorkflowRef returns the followedWorkflow reference of the first generation
// whose activity declares one.
func (e *Entity) WorkflowRef() (Ref, bool) {
	for _, g := range e.Generation.Value {
		act, ok := g.Activity.Get()
		if !ok || !act.HasWorkflow() {
			continue
		}
		return act.FollowedWorkflow.Value, true
	}
	return Ref{}, false
}

// DerivationRefs returns the ancestor references in declaration order.
// Derivation records without an entity are skipped.
func (e *Entity) DerivationRefs() []Ref {
	var refs []Ref
	for _, d := range e.Derivation.Value {
		if ref, ok := d.Entity.Get(); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// PartsOfType returns the hasPart members declaring type t.
func (e *Entity) PartsOfType(t string) []Ref {
	return refsOfType(e.HasPart.Value, t)
}

// UsesOfType returns the uses members declaring type t.
func (e *Entity) UsesOfType(t string) []Ref {
	return refsOfType(e.Uses.Value, t)
}

// ContentURL returns the first distribution content URL, if any.
func (e *Entity) ContentURL() (string, bool) {
	for _, d := range e.Distribution {
		if d.ContentURL != "" {
			return d.ContentURL, true
		}
	}
	return "", false
}

func refsOfType(refs []Ref, t string) []Ref {
	var out []Ref
	for _, r := range refs {
		if r.HasType(t) {
			out = append(out, r)
		}
	}
	return out
}
