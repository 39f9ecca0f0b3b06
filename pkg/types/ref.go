package types

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Ref is a reference to another resource, as embedded in a parent document.
// The graph emits references either as a bare identifier string or as an
// object carrying @id, @type and occasionally extra free-form fields.
type Ref struct {
	ID    string
	Types []string
	// Extra holds the free-form "extra" field some references carry
	// (publication references use it for supplementary information).
	Extra json.RawMessage
}

// Refs is a one-or-many list of references.
type Refs = List[Ref]

// HasType reports whether the reference declares type t.
func (r Ref) HasType(t string) bool {
	return slices.Contains(r.Types, t)
}

type refDoc struct {
	AtID    string          `json:"@id"`
	ID      string          `json:"id"`
	AtTypes List[string]    `json:"@type"`
	Types   List[string]    `json:"type"`
	Extra   json.RawMessage `json:"extra"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ref) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = Ref{ID: id}
		return nil
	}
	var doc refDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode reference: %w", err)
	}
	*r = Ref{
		ID:    firstNonEmpty(doc.AtID, doc.ID),
		Types: mergeTypes(doc.AtTypes, doc.Types),
	}
	if len(doc.Extra) > 0 && !isNull(doc.Extra) {
		r.Extra = doc.Extra
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (r Ref) MarshalJSON() ([]byte, error) {
	out := map[string]any{"@id": r.ID}
	if len(r.Types) == 1 {
		out["@type"] = r.Types[0]
	} else if len(r.Types) > 1 {
		out["@type"] = r.Types
	}
	if len(r.Extra) > 0 {
		out["extra"] = r.Extra
	}
	return json.Marshal(out)
}

// IDs returns the identifiers of refs in order.
func IDs(refs []Ref) []string {
	ids := make([]string, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.ID)
	}
	return ids
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func mergeTypes(a, b List[string]) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	for _, t := range b {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
