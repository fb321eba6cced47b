// Package pipeline coordinates one run from prompt to generated artifacts:
// collect the codebase context, analyze it when present, plan, then execute.
// Analysis failures degrade the run; collection, planning, and execution
// failures end it.
package pipeline

import (
	"context"
	"fmt"

	"github.com/pterm/pterm"

	"github.com/gryffinlabs/gryffin/collector"
	"github.com/gryffinlabs/gryffin/executor"
	"github.com/gryffinlabs/gryffin/insight"
	"github.com/gryffinlabs/gryffin/planner"
)

// State is the coordinator's position in a run.
type State int

const (
	StateIdle State = iota
	StateCollecting
	StateSkipped
	StateAnalyzing
	StatePlanning
	StateExecuting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCollecting:
		return "collecting"
	case StateSkipped:
		return "skipped"
	case StateAnalyzing:
		return "analyzing"
	case StatePlanning:
		return "planning"
	case StateExecuting:
		return "executing"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Analyzer produces a codebase analysis from a snapshot. It reports problems
// through the analysis status instead of an error.
type Analyzer interface {
	Extract(ctx context.Context, snapshot *collector.Snapshot) insight.Analysis
}

// Planner generates and persists the architecture and task artifacts.
type Planner interface {
	Plan(ctx context.Context, targetDir string, prompt string, analysis insight.Analysis) (*planner.Plan, error)
}

// Executor applies the plan to the target directory.
type Executor interface {
	Execute(ctx context.Context, targetDir string, plan *planner.Plan, analysis insight.Analysis) (*executor.Result, error)
}

// Result is the outcome of a completed run.
type Result struct {
	State     State
	States    []State
	Snapshot  *collector.Snapshot
	Analysis  insight.Analysis
	Plan      *planner.Plan
	Execution *executor.Result
}

// Coordinator owns the run state machine. Each Run starts from idle; the
// coordinator is not safe for concurrent runs.
type Coordinator struct {
	CollectorOptions collector.Options
	Analyzer         Analyzer
	Planner          Planner
	Executor         Executor

	state  State
	states []State
}

func NewCoordinator(opts collector.Options, analyzer Analyzer, p Planner, e Executor) *Coordinator {
	return &Coordinator{
		CollectorOptions: opts,
		Analyzer:         analyzer,
		Planner:          p,
		Executor:         e,
		state:            StateIdle,
	}
}

// State returns the coordinator's current state.
func (c *Coordinator) State() State {
	return c.state
}

func (c *Coordinator) transition(next State) {
	c.state = next
	c.states = append(c.states, next)
}

func (c *Coordinator) fail(stage string, err error) (*Result, error) {
	c.transition(StateFailed)
	return &Result{State: StateFailed, States: c.states}, fmt.Errorf("%s: %w", stage, err)
}

// Run drives one full pass for the prompt. rootDir is both the analyzed
// codebase and the destination for generated artifacts.
func (c *Coordinator) Run(ctx context.Context, prompt string, rootDir string) (*Result, error) {
	c.state = StateIdle
	c.states = []State{StateIdle}

	c.transition(StateCollecting)
	pterm.Info.Printf("Collecting codebase context from %s\n", rootDir)
	snapshot, err := collector.Collect(rootDir, c.CollectorOptions)
	if err != nil {
		return c.fail("collecting codebase context", err)
	}

	var analysis insight.Analysis
	if snapshot.Empty() {
		c.transition(StateSkipped)
		analysis = insight.Skipped("no analyzable files found")
		pterm.Info.Println("No existing code found, planning from the prompt alone.")
	} else {
		c.transition(StateAnalyzing)
		pterm.Info.Printf("Analyzing %d collected file(s)\n", len(snapshot.Files))
		analysis = c.Analyzer.Extract(ctx, snapshot)
		if analysis.Status == insight.StatusFailed {
			pterm.Warning.Printf("Codebase analysis unavailable (%s), continuing without it\n", analysis.Reason)
		}
	}

	c.transition(StatePlanning)
	plan, err := c.Planner.Plan(ctx, rootDir, prompt, analysis)
	if err != nil {
		return c.fail("planning", err)
	}

	c.transition(StateExecuting)
	execution, err := c.Executor.Execute(ctx, rootDir, plan, analysis)
	if err != nil {
		return c.fail("executing plan", err)
	}

	c.transition(StateDone)
	return &Result{
		State:     StateDone,
		States:    c.states,
		Snapshot:  snapshot,
		Analysis:  analysis,
		Plan:      plan,
		Execution: execution,
	}, nil
}
