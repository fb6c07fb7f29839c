package engine

import (
	"encoding/json"
	"fmt"
)

// SerializeResult converts a Result to JSON for the CLI and the browser
// entry point. Nil slices are emitted as empty arrays.
func SerializeResult(res *Result) ([]byte, error) {
	out := *res
	if out.Outcomes == nil {
		out.Outcomes = []Outcome{}
	}
	if out.Duplicates == nil {
		out.Duplicates = []DuplicateIdentifier{}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize result: %w", err)
	}
	return data, nil
}

// DeserializeResult reconstructs a Result from its JSON representation and
// recomputes the per-category counts from the outcomes.
func DeserializeResult(data []byte) (*Result, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to deserialize result: %w", err)
	}

	res.Stats.ByCategory = make(map[Category]int, len(Categories))
	for _, o := range res.Outcomes {
		res.Stats.ByCategory[o.Category]++
	}

	return &res, nil
}
