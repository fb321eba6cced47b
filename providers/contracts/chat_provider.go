package contracts

import (
	"context"
	"encoding/json"
)

// IChatProvider is the outbound boundary to a text-analysis capability. A
// call makes exactly one bounded attempt; retry policy, if any, belongs to
// the caller, not here.
type IChatProvider interface {
	// Name identifies the provider and model for diagnostics.
	Name() string
	// GenerateJSON submits a system and user prompt and returns the raw JSON
	// payload extracted from the model response.
	GenerateJSON(ctx context.Context, systemPrompt string, userPrompt string) (json.RawMessage, error)
}
