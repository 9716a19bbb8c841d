package convert

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aluiziolira/go-scrape-to-json/models"
)

// LoadAnalysisFile reads a schema from disk. Two shapes are accepted: a
// full analysis produced by a prior run (detected by its "schema" key), or
// a bare schema object, which gets wrapped into a minimal analysis. An
// unreadable or malformed file is a configuration error and fails the run.
func LoadAnalysisFile(path string) (models.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Analysis{}, fmt.Errorf("reading schema file: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Analysis{}, fmt.Errorf("parsing schema file %s: %w", path, err)
	}

	if _, ok := raw["schema"]; ok {
		var analysis models.Analysis
		if err := json.Unmarshal(data, &analysis); err != nil {
			return models.Analysis{}, fmt.Errorf("parsing analysis file %s: %w", path, err)
		}
		if analysis.Schema == nil {
			analysis.Schema = map[string]any{}
		}
		return analysis, nil
	}

	return models.Analysis{
		ContentType: "Provided schema",
		Entities:    []string{},
		Schema:      raw,
		Indexes:     []string{},
		Notes:       "Schema provided by user for consistent parsing",
	}, nil
}
