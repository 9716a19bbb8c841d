package models

// Analysis is the schema proposal produced by the inference step, or loaded
// verbatim from a prior run. It is immutable for the remainder of a run.
type Analysis struct {
	ContentType string         `json:"content_type"`
	Entities    []string       `json:"entities"`
	Schema      map[string]any `json:"schema"`
	Indexes     []string       `json:"indexes"`
	Notes       string         `json:"notes"`
}

// InferenceFailed reports whether the analysis carries no usable schema.
// The inference fallback and a degenerate provider reply both leave the
// schema map empty; conversion against it would produce schema-less records.
func (a Analysis) InferenceFailed() bool {
	return len(a.Schema) == 0
}

// EmptyAnalysis returns the well-defined fallback used when inference fails.
// Callers must treat an empty Schema map as "inference failed".
func EmptyAnalysis(reason string) Analysis {
	return Analysis{
		ContentType: "unknown",
		Entities:    []string{},
		Schema:      map[string]any{},
		Indexes:     []string{},
		Notes:       reason,
	}
}
