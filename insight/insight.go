// Package insight turns a codebase snapshot into a structured insight record
// by way of one bounded analysis call to a chat provider. Analysis failure is
// recoverable: the pipeline carries an explicit status instead of an error so
// "nothing to analyze" and "analysis broke" stay distinguishable.
package insight

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status tags the outcome of the analysis stage.
type Status int

const (
	// StatusSkipped means there was nothing to analyze (empty snapshot).
	StatusSkipped Status = iota
	// StatusAnalyzed means a well-formed insight record was produced.
	StatusAnalyzed
	// StatusFailed means analysis was attempted and broke; the reason says why.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusAnalyzed:
		return "analyzed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Recommendations describes how new work should integrate with the existing
// codebase.
type Recommendations struct {
	HowToExtend       string `json:"how_to_extend"`
	PatternsToFollow  string `json:"patterns_to_follow"`
	IntegrationPoints string `json:"integration_points"`
}

// CodebaseInsight is the structured summary of an analyzed codebase. It is
// created once per run, never mutated afterwards, and borrowed read-only by
// the planner and executor.
type CodebaseInsight struct {
	ProjectType           string            `json:"project_type"`
	ExistingApps          []string          `json:"existing_apps"`
	TechStack             map[string]string `json:"tech_stack"`
	ExistingFunctionality []string          `json:"existing_functionality"`
	Gaps                  []string          `json:"gaps_and_opportunities"`
	Recommendations       Recommendations   `json:"recommendations"`
}

// Analysis is the tagged variant handed to downstream stages. Insight is
// non-nil exactly when Status is StatusAnalyzed.
type Analysis struct {
	Status  Status
	Insight *CodebaseInsight
	Reason  string
}

// Analyzed wraps a parsed insight record.
func Analyzed(ins *CodebaseInsight) Analysis {
	return Analysis{Status: StatusAnalyzed, Insight: ins}
}

// Skipped marks a run with nothing to analyze; the reason says why it was
// skipped.
func Skipped(reason string) Analysis {
	return Analysis{Status: StatusSkipped, Reason: reason}
}

// Failed marks a broken analysis with a diagnostic reason.
func Failed(reason string) Analysis {
	return Analysis{Status: StatusFailed, Reason: reason}
}

// HasInsight reports whether a real insight record is available.
func (a Analysis) HasInsight() bool {
	return a.Status == StatusAnalyzed && a.Insight != nil
}

// rawInsight mirrors the provider response shape before normalization.
// tech_stack values may be strings, lists, or null in the wild, so they are
// decoded loosely and flattened.
type rawInsight struct {
	ProjectType           *string                    `json:"project_type"`
	ExistingApps          []string                   `json:"existing_apps"`
	TechStack             map[string]json.RawMessage `json:"tech_stack"`
	ExistingFunctionality []string                   `json:"existing_functionality"`
	Gaps                  []string                   `json:"gaps_and_opportunities"`
	Recommendations       Recommendations            `json:"recommendations"`
}

// ParseInsight validates a raw analysis payload against the insight shape.
// It is strict on the required fields (project_type, tech_stack) and lenient
// on everything else: missing optional fields become empty collections, never
// nil.
func ParseInsight(raw json.RawMessage) (*CodebaseInsight, error) {
	var r rawInsight
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	if r.ProjectType == nil || strings.TrimSpace(*r.ProjectType) == "" {
		return nil, fmt.Errorf("missing required field %q", "project_type")
	}
	if r.TechStack == nil {
		return nil, fmt.Errorf("missing required field %q", "tech_stack")
	}

	ins := &CodebaseInsight{
		ProjectType:           *r.ProjectType,
		ExistingApps:          emptyIfNil(r.ExistingApps),
		TechStack:             flattenTechStack(r.TechStack),
		ExistingFunctionality: emptyIfNil(r.ExistingFunctionality),
		Gaps:                  emptyIfNil(r.Gaps),
		Recommendations:       r.Recommendations,
	}
	return ins, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// flattenTechStack maps each component to one technology string, joining
// lists and dropping nulls.
func flattenTechStack(raw map[string]json.RawMessage) map[string]string {
	out := make(map[string]string, len(raw))
	for component, value := range raw {
		var asString string
		if err := json.Unmarshal(value, &asString); err == nil {
			if asString != "" {
				out[component] = asString
			}
			continue
		}
		var asList []string
		if err := json.Unmarshal(value, &asList); err == nil {
			if len(asList) > 0 {
				out[component] = strings.Join(asList, ", ")
			}
			continue
		}
		// Anything else (nested objects, numbers) keeps its JSON text form.
		trimmed := strings.TrimSpace(string(value))
		if trimmed != "null" && trimmed != "" {
			out[component] = trimmed
		}
	}
	return out
}
