// Package executor turns the planner's task list into files on disk. Each
// task is sent to the provider with the README and codebase insight as
// context, and the returned file manifest is applied under the target
// directory. The README is written first so every later call shares the same
// project contract.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pterm/pterm"

	"github.com/gryffinlabs/gryffin/insight"
	"github.com/gryffinlabs/gryffin/planner"
	"github.com/gryffinlabs/gryffin/providers/contracts"
	"github.com/gryffinlabs/gryffin/utils"
)

const taskCodeSystem = "You are a senior software engineer who meticulously follows project architecture " +
	"and README guidelines. You never introduce frameworks or libraries not in the tech stack, you place " +
	"files in correct locations, and you include all imports. Return only valid JSON with keys: " +
	"files (array of {path, content, action}) and description."

// FileChange is one entry of a task's generated manifest.
type FileChange struct {
	Path    string `json:"path"`
	Content string `json:"content"`
	Action  string `json:"action"`
}

type taskManifest struct {
	Files       []FileChange `json:"files"`
	Description string       `json:"description"`
}

// Result summarizes one execution run.
type Result struct {
	ReadmePath     string
	CreatedFiles   []string
	CompletedTasks []string
}

// Executor applies planned tasks to the target directory. A nil provider
// writes the README and stops, leaving code generation to a later run.
type Executor struct {
	Provider contracts.IChatProvider
	Tracker  *SessionTracker
	Theme    string
}

func NewExecutor(provider contracts.IChatProvider, theme string) *Executor {
	return &Executor{
		Provider: provider,
		Tracker:  NewSessionTracker(),
		Theme:    theme,
	}
}

// Execute writes the README and then runs every task in plan order. The
// analysis value is read-only context.
func (e *Executor) Execute(ctx context.Context, targetDir string, plan *planner.Plan, analysis insight.Analysis) (*Result, error) {
	if plan == nil || plan.Architecture == nil || plan.Tasks == nil {
		return nil, fmt.Errorf("executor: plan is incomplete")
	}

	files, err := listProjectFiles(targetDir)
	if err != nil {
		return nil, fmt.Errorf("snapshotting target directory: %w", err)
	}

	readme := buildReadme(plan.Architecture, files, analysis)
	readmePath := filepath.Join(targetDir, "README.md")
	if err := os.WriteFile(readmePath, []byte(readme), 0644); err != nil {
		return nil, fmt.Errorf("writing README.md: %w", err)
	}
	e.Tracker.TrackCreated(readmePath)

	result := &Result{ReadmePath: readmePath}

	if e.Provider == nil {
		pterm.Warning.Println("No AI provider configured, skipping code generation. Plan and README were written.")
		result.CreatedFiles = e.Tracker.CreatedFiles()
		return result, nil
	}

	for i, task := range plan.Tasks.MajorTasks {
		pterm.DefaultSection.Printf("Task %d/%d: %s", i+1, len(plan.Tasks.MajorTasks), task.Title)

		manifest, err := e.generateTaskCode(ctx, task, plan, readme, files, analysis, result.CompletedTasks)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", task.Title, err)
		}
		if manifest.Description != "" {
			pterm.Info.Println(manifest.Description)
		}

		if err := e.applyManifest(targetDir, manifest); err != nil {
			return nil, fmt.Errorf("task %q: %w", task.Title, err)
		}
		result.CompletedTasks = append(result.CompletedTasks, task.Title)

		// Refresh the tree so the next task sees the files this one created.
		files, err = listProjectFiles(targetDir)
		if err != nil {
			return nil, fmt.Errorf("refreshing target directory snapshot: %w", err)
		}
	}

	result.CreatedFiles = e.Tracker.CreatedFiles()
	return result, nil
}

func (e *Executor) generateTaskCode(
	ctx context.Context,
	task planner.MajorTask,
	plan *planner.Plan,
	readme string,
	files []string,
	analysis insight.Analysis,
	completed []string,
) (*taskManifest, error) {
	raw, err := e.Provider.GenerateJSON(ctx, taskCodeSystem, taskPrompt(task, plan, readme, files, analysis, completed))
	if err != nil {
		return nil, err
	}
	var manifest taskManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("manifest response was not the expected JSON object: %w", err)
	}
	return &manifest, nil
}

func taskPrompt(
	task planner.MajorTask,
	plan *planner.Plan,
	readme string,
	files []string,
	analysis insight.Analysis,
	completed []string,
) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are implementing this task:\n\nTask: %s\nDescription: %s\n", task.Title, task.Description)

	b.WriteString("\n## Project README\n")
	b.WriteString(readme)

	if analysis.HasInsight() {
		ins := analysis.Insight
		b.WriteString("\n## EXISTING CODEBASE ANALYSIS (MUST RESPECT)\n\n")
		fmt.Fprintf(&b, "Project Type: %s\n", ins.ProjectType)
		fmt.Fprintf(&b, "Patterns to Follow: %s\n", ins.Recommendations.PatternsToFollow)
		fmt.Fprintf(&b, "Integration Points: %s\n", ins.Recommendations.IntegrationPoints)
		b.WriteString("\nDo NOT duplicate existing functionality, swap frameworks, or break existing patterns.\n")
	}

	arch, _ := json.MarshalIndent(plan.Architecture, "", "  ")
	fmt.Fprintf(&b, "\n## Project Architecture\n%s\n", arch)

	fmt.Fprintf(&b, "\n## Implementation Context\nAlready completed tasks: %s\n", joinOrNone(completed))
	fmt.Fprintf(&b, "\nCurrent file tree:\n%s\n", strings.Join(files, "\n"))

	b.WriteString("\n## Your Task\nGenerate a complete implementation for this task. " +
		"Use only the tech stack in the architecture, place files in correct directories, " +
		"and include all imports. Return JSON with files (path, content, action: create|modify) " +
		"and description.\n")
	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}

// applyManifest writes each file change, refusing paths that escape the
// target directory.
func (e *Executor) applyManifest(targetDir string, manifest *taskManifest) error {
	for _, change := range manifest.Files {
		dest, err := resolveWithin(targetDir, change.Path)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", change.Path, err)
		}

		existed := fileExists(dest)
		if existed && !e.Tracker.Owns(dest) && change.Action == "create" {
			pterm.Warning.Printf("Skipping %s: file exists and was not created this session\n", change.Path)
			continue
		}

		if err := os.WriteFile(dest, []byte(change.Content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", change.Path, err)
		}
		if existed {
			e.Tracker.TrackModified(dest)
			pterm.Success.Printf("Updated: %s\n", change.Path)
		} else {
			e.Tracker.TrackCreated(dest)
			pterm.Success.Printf("Created: %s\n", change.Path)
		}

		if err := utils.RenderCodePreview(os.Stdout, change.Path, change.Content, e.Theme); err != nil {
			pterm.Warning.Printf("Preview unavailable for %s: %v\n", change.Path, err)
		}
	}
	return nil
}

// resolveWithin joins rel under root and rejects absolute paths and parent
// traversal.
func resolveWithin(root, rel string) (string, error) {
	if rel == "" {
		return "", fmt.Errorf("executor: manifest entry has empty path")
	}
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("executor: absolute path %q not allowed", rel)
	}
	cleaned := filepath.Clean(rel)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("executor: path %q escapes the target directory", rel)
	}
	return filepath.Join(root, cleaned), nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// listProjectFiles walks the target tree, skipping hidden and dependency
// directories, and returns sorted relative paths.
func listProjectFiles(targetDir string) ([]string, error) {
	skip := map[string]struct{}{
		"node_modules": {}, "__pycache__": {}, "venv": {}, "env": {},
		".venv": {}, "dist": {}, "build": {}, "vendor": {},
	}

	var files []string
	err := filepath.WalkDir(targetDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == targetDir {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if _, ok := skip[name]; ok {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(targetDir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
