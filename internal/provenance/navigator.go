package provenance

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// emodel locates the workflow configuration of an electrical model: its
// generation activity's followedWorkflow, the workflow's extraction targets
// and model configurations, the traces the former uses and the morphology
// the latter uses.
func (q *query) emodel(ctx context.Context, id string) (*types.EModelEntry, error) {
	emodel, err := q.require(ctx, id, types.TypeEModel)
	if err != nil {
		return nil, err
	}
	if !emodel.Generation.Present {
		return nil, missingField(types.TypeEModel, id, "generation")
	}
	workflowRef, ok := emodel.WorkflowRef()
	if !ok {
		return nil, &types.SchemaError{
			Type:   types.TypeEModel,
			ID:     id,
			Field:  "generation/activity/followedWorkflow",
			Reason: "no generation activity follows a workflow",
		}
	}

	workflow, err := q.require(ctx, workflowRef.ID, types.TypeEModelWorkflow)
	if err != nil {
		return nil, err
	}
	if !workflow.HasPart.Present {
		return nil, missingField(types.TypeEModelWorkflow, workflow.ID, "hasPart")
	}
	targetsRef, err := exactlyOne(workflow.PartsOfType(types.TypeExtractionTargetsConfiguration), types.TypeEModelWorkflow, workflowRef.ID, "hasPart", types.TypeExtractionTargetsConfiguration)
	if err != nil {
		return nil, err
	}
	configRef, err := exactlyOne(workflow.PartsOfType(types.TypeEModelConfiguration), types.TypeEModelWorkflow, workflowRef.ID, "hasPart", types.TypeEModelConfiguration)
	if err != nil {
		return nil, err
	}

	targets, err := q.require(ctx, targetsRef.ID, types.TypeExtractionTargetsConfiguration)
	if err != nil {
		return nil, err
	}
	config, err := q.require(ctx, configRef.ID, types.TypeEModelConfiguration)
	if err != nil {
		return nil, err
	}
	if !targets.Uses.Present {
		return nil, missingField(types.TypeExtractionTargetsConfiguration, targetsRef.ID, "uses")
	}
	if !config.Uses.Present {
		return nil, missingField(types.TypeEModelConfiguration, configRef.ID, "uses")
	}
	morphologyRef, err := exactlyOne(config.UsesOfType(types.TypeNeuronMorphology), types.TypeEModelConfiguration, configRef.ID, "uses", types.TypeNeuronMorphology)
	if err != nil {
		return nil, err
	}
	traceIDs := types.IDs(targets.Uses.Value)

	q.log.Debug().Str("emodel", id).Str("workflow", workflowRef.ID).Strs("traces", traceIDs).Str("morphology", morphologyRef.ID).Msg("located electrical model workflow inputs")

	head, err := q.entry(ctx, id, types.TypeEModel)
	if err != nil {
		return nil, err
	}
	out := &types.EModelEntry{Entry: head, Traces: make([]types.Entry, 0, len(traceIDs))}
	for _, traceID := range traceIDs {
		trace, err := q.entry(ctx, traceID, types.TypeTrace)
		if err != nil {
			return nil, err
		}
		out.Traces = append(out.Traces, trace)
	}
	out.Morphology, err = q.entry(ctx, morphologyRef.ID, types.TypeNeuronMorphology)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// memodel splits a composite model into its morphology and electrical model
// parts and assembles the provenance of all three.
func (q *query) memodel(ctx context.Context, id string) (*types.MEModelEntry, error) {
	memodel, err := q.require(ctx, id, types.TypeMEModel)
	if err != nil {
		return nil, err
	}
	if !memodel.HasPart.Present {
		return nil, missingField(types.TypeMEModel, id, "hasPart")
	}
	morphologyRef, err := exactlyOne(memodel.PartsOfType(types.TypeNeuronMorphology), types.TypeMEModel, id, "hasPart", types.TypeNeuronMorphology)
	if err != nil {
		return nil, err
	}
	emodelRef, err := exactlyOne(memodel.PartsOfType(types.TypeEModel), types.TypeMEModel, id, "hasPart", types.TypeEModel)
	if err != nil {
		return nil, err
	}

	emodel, err := q.emodel(ctx, emodelRef.ID)
	if err != nil {
		return nil, err
	}
	head, err := q.entry(ctx, id, types.TypeMEModel)
	if err != nil {
		return nil, err
	}
	morphology, err := q.entry(ctx, morphologyRef.ID, types.TypeNeuronMorphology)
	if err != nil {
		return nil, err
	}
	return &types.MEModelEntry{Entry: head, Morphology: morphology, EModel: *emodel}, nil
}

// require retrieves an entity the query cannot proceed without.
func (q *query) require(ctx context.Context, id, typ string) (*types.Entity, error) {
	entity, err := q.search.Retrieve(ctx, id, true)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("retrieve %s %s: %w", typ, id, err)
	}
	if entity == nil || err != nil {
		return nil, &types.SchemaError{Type: typ, ID: id, Reason: "could not be found"}
	}
	return entity, nil
}

func exactlyOne(refs []types.Ref, ownerType, ownerID, field, partType string) (types.Ref, error) {
	if len(refs) != 1 {
		return types.Ref{}, &types.SchemaError{
			Type:   ownerType,
			ID:     ownerID,
			Field:  field,
			Reason: fmt.Sprintf("found %d %s (%s) members, expected exactly 1", len(refs), types.TypeLabel(partType), partType),
		}
	}
	return refs[0], nil
}

func missingField(typ, id, field string) error {
	return &types.SchemaError{Type: typ, ID: id, Field: field, Reason: "missing required field"}
}
