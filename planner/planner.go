// Package planner generates the architecture description and major task list
// for a prompt, optionally conditioned on a codebase insight. It is a
// downstream collaborator of the pipeline core: its failures are fatal to a
// run, unlike analysis failures.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gryffinlabs/gryffin/insight"
	"github.com/gryffinlabs/gryffin/providers/contracts"
)

const (
	// ArchitectureFile is the persisted architecture artifact.
	ArchitectureFile = "architecture.json"
	// TasksFile is the persisted major-task artifact.
	TasksFile = "majortasks.json"
)

const architectureSystem = "You are a senior software architect. Return a JSON object only. " +
	"Use keys: app_name, overview, components, data_flow, tech_stack, risks, assumptions."

const tasksSystem = "You are a technical program manager. Return a JSON object only. " +
	"Use keys: major_tasks (array of objects with title, description, owners, dependencies, acceptance_criteria)."

// Component is one architectural building block.
type Component struct {
	Name           string `json:"name"`
	Responsibility string `json:"responsibility"`
}

// Architecture is the planner's first artifact.
type Architecture struct {
	AppName     string            `json:"app_name"`
	Overview    string            `json:"overview"`
	Components  []Component       `json:"components"`
	DataFlow    string            `json:"data_flow"`
	TechStack   map[string]string `json:"tech_stack"`
	Risks       []string          `json:"risks"`
	Assumptions []string          `json:"assumptions"`
}

// MajorTask is one unit of the generated work breakdown.
type MajorTask struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Owners             []string `json:"owners"`
	Dependencies       []string `json:"dependencies"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
}

// TaskList is the planner's second artifact.
type TaskList struct {
	MajorTasks []MajorTask `json:"major_tasks"`
}

// Plan bundles both artifacts with their on-disk locations.
type Plan struct {
	Architecture     *Architecture
	Tasks            *TaskList
	ArchitecturePath string
	TasksPath        string
}

// Planner drives the two planning calls. A nil provider switches to
// deterministic offline fallbacks.
type Planner struct {
	Provider contracts.IChatProvider
}

func NewPlanner(provider contracts.IChatProvider) *Planner {
	return &Planner{Provider: provider}
}

// Plan generates and persists the architecture and task list. The analysis
// value is read-only: an available insight augments the prompts so the plan
// extends the existing codebase instead of replacing it.
func (p *Planner) Plan(ctx context.Context, targetDir string, prompt string, analysis insight.Analysis) (*Plan, error) {
	arch, err := p.generateArchitecture(ctx, prompt, analysis)
	if err != nil {
		return nil, fmt.Errorf("generating architecture: %w", err)
	}
	tasks, err := p.generateTasks(ctx, prompt, analysis)
	if err != nil {
		return nil, fmt.Errorf("generating tasks: %w", err)
	}

	archPath := filepath.Join(targetDir, ArchitectureFile)
	if err := writeJSON(archPath, arch); err != nil {
		return nil, err
	}
	tasksPath := filepath.Join(targetDir, TasksFile)
	if err := writeJSON(tasksPath, tasks); err != nil {
		return nil, err
	}

	return &Plan{
		Architecture:     arch,
		Tasks:            tasks,
		ArchitecturePath: archPath,
		TasksPath:        tasksPath,
	}, nil
}

func (p *Planner) generateArchitecture(ctx context.Context, prompt string, analysis insight.Analysis) (*Architecture, error) {
	if p.Provider == nil {
		return fallbackArchitecture(prompt), nil
	}
	raw, err := p.Provider.GenerateJSON(ctx, architectureSystem, architecturePrompt(prompt, analysis))
	if err != nil {
		return nil, err
	}
	var arch Architecture
	if err := json.Unmarshal(raw, &arch); err != nil {
		return nil, fmt.Errorf("architecture response was not the expected JSON object: %w", err)
	}
	return &arch, nil
}

func (p *Planner) generateTasks(ctx context.Context, prompt string, analysis insight.Analysis) (*TaskList, error) {
	if p.Provider == nil {
		return fallbackTasks(prompt), nil
	}
	raw, err := p.Provider.GenerateJSON(ctx, tasksSystem, tasksPrompt(prompt, analysis))
	if err != nil {
		return nil, err
	}
	var tasks TaskList
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("tasks response was not the expected JSON object: %w", err)
	}
	return &tasks, nil
}

// architecturePrompt prepends the existing-codebase context when an insight
// is present, instructing the model to extend rather than replace.
func architecturePrompt(prompt string, analysis insight.Analysis) string {
	if !analysis.HasInsight() {
		return prompt
	}
	ins := analysis.Insight

	var b strings.Builder
	b.WriteString("# EXISTING CODEBASE CONTEXT\n\n")
	b.WriteString("This project already has existing code. You MUST build upon it, not replace it.\n\n")
	fmt.Fprintf(&b, "Project Type: %s\n", ins.ProjectType)
	if len(ins.ExistingApps) > 0 {
		fmt.Fprintf(&b, "Existing Apps/Modules: %s\n", strings.Join(ins.ExistingApps, ", "))
	}
	if len(ins.TechStack) > 0 {
		stack, _ := json.MarshalIndent(ins.TechStack, "", "  ")
		fmt.Fprintf(&b, "\nTech Stack:\n%s\n", stack)
	}
	if len(ins.ExistingFunctionality) > 0 {
		b.WriteString("\nExisting Functionality:\n")
		for _, fn := range capped(ins.ExistingFunctionality, 10) {
			fmt.Fprintf(&b, "- %s\n", fn)
		}
	}
	fmt.Fprintf(&b, "\n# USER REQUEST\n%s\n", prompt)
	b.WriteString("\n# YOUR TASK\nGenerate architecture that EXTENDS the existing codebase. " +
		"Use the same tech stack, follow existing patterns, and integrate with existing functionality. " +
		"Do NOT suggest replacing or removing existing code.\n")
	return b.String()
}

func tasksPrompt(prompt string, analysis insight.Analysis) string {
	if !analysis.HasInsight() {
		return prompt
	}
	ins := analysis.Insight

	var b strings.Builder
	b.WriteString("# EXISTING CODEBASE CONTEXT\n\n")
	if len(ins.ExistingFunctionality) > 0 {
		b.WriteString("Existing Functionality:\n")
		for _, fn := range capped(ins.ExistingFunctionality, 10) {
			fmt.Fprintf(&b, "- %s\n", fn)
		}
	}
	b.WriteString("\nRecommendations for extending:\n")
	fmt.Fprintf(&b, "- How to extend: %s\n", ins.Recommendations.HowToExtend)
	fmt.Fprintf(&b, "- Patterns to follow: %s\n", ins.Recommendations.PatternsToFollow)
	fmt.Fprintf(&b, "- Integration points: %s\n", ins.Recommendations.IntegrationPoints)
	fmt.Fprintf(&b, "\n# USER REQUEST\n%s\n", prompt)
	b.WriteString("\n# YOUR TASK\nGenerate tasks that EXTEND the existing codebase. " +
		"Reference existing files and components. Build upon what's already there.\n")
	return b.String()
}

func capped(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// fallbackArchitecture keeps the pipeline productive when no provider is
// configured.
func fallbackArchitecture(prompt string) *Architecture {
	return &Architecture{
		AppName:  "New Gryffin App",
		Overview: prompt,
		Components: []Component{
			{Name: "frontend", Responsibility: "User interface for the MVP."},
			{Name: "backend", Responsibility: "API and business logic."},
			{Name: "data", Responsibility: "Persistence and storage."},
		},
		DataFlow: "User input -> API -> storage -> response.",
		TechStack: map[string]string{
			"frontend": "TBD",
			"backend":  "TBD",
			"data":     "TBD",
		},
		Risks:       []string{"Requirements unclear", "Scope creep"},
		Assumptions: []string{"Single-tenant MVP", "Small team"},
	}
}

func fallbackTasks(prompt string) *TaskList {
	return &TaskList{
		MajorTasks: []MajorTask{
			{
				Title:              "Define MVP scope",
				Description:        fmt.Sprintf("Clarify success criteria and scope for: %s", prompt),
				Owners:             []string{"product"},
				Dependencies:       []string{},
				AcceptanceCriteria: []string{"One-page scope doc approved"},
			},
			{
				Title:              "Design architecture",
				Description:        "Pick stack, define services, and data model.",
				Owners:             []string{"engineering"},
				Dependencies:       []string{"Define MVP scope"},
				AcceptanceCriteria: []string{"Architecture approved"},
			},
			{
				Title:              "Build MVP",
				Description:        "Implement core user flow end-to-end.",
				Owners:             []string{"engineering"},
				Dependencies:       []string{"Design architecture"},
				AcceptanceCriteria: []string{"MVP runs locally"},
			},
		},
	}
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
