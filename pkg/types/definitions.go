package types

var typeDefinitions = map[string]string{
	TypeNeuronMorphology: "Digital reconstruction of the geometry of a neuron. The reconstruction is always an approximation of the neuron and consists of a series of truncated cones or frusta.",
	TypeMEModel:          "",
	TypeEModel:           "",
	TypeTrace:            "Electrophysiological recording of a neuron. It consists of a measurement of the neuron (normally voltage or current) over time.",
}

var typeLabels = map[string]string{
	TypeNeuronMorphology:               "morphology",
	TypeTrace:                          "trace",
	TypeEModel:                         "electrical model",
	TypeMEModel:                        "composite model",
	TypeEModelWorkflow:                 "electrical model workflow",
	TypeExtractionTargetsConfiguration: "extraction targets configuration",
	TypeEModelConfiguration:            "electrical model configuration",
	TypeProtocol:                       "protocol",
	TypePublication:                    "publication",
}

// TypeDefinition returns the human-readable definition of a declared type.
// Unknown types have an empty definition.
func TypeDefinition(t string) string {
	return typeDefinitions[t]
}

// TypeLabel returns a lower-case label for t used in messages.
func TypeLabel(t string) string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return t
}
