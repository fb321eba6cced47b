package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gryffinlabs/gryffin/constants/lipgloss"
	"github.com/gryffinlabs/gryffin/executor"
	"github.com/gryffinlabs/gryffin/insight"
	"github.com/gryffinlabs/gryffin/pipeline"
	"github.com/gryffinlabs/gryffin/planner"
	"github.com/gryffinlabs/gryffin/utils"
)

var startCmd = &cobra.Command{
	Use:   "start [path]",
	Short: "Capture a prompt and run the full generation pipeline.",
	Long: `The 'start' subcommand asks what to build, records the prompt in the target
directory's prompt history, and runs a full pipeline pass: collect the existing
code, analyze it, plan the architecture and tasks, and generate the files.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return handleStartCommand(deps, targetDirArg(deps.Cwd, args))
	},
}

func targetDirArg(cwd string, args []string) string {
	if len(args) == 0 {
		return cwd
	}
	if filepath.IsAbs(args[0]) {
		return filepath.Clean(args[0])
	}
	return filepath.Join(cwd, args[0])
}

func handleStartCommand(deps *RootDependencies, targetDir string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reader := bufio.NewReader(os.Stdin)
	prompt, err := utils.InputPrompt(reader)
	if err != nil {
		return err
	}
	if prompt == "" {
		return fmt.Errorf("prompt cannot be empty")
	}

	entry, err := utils.AppendPrompt(targetDir, prompt)
	if err != nil {
		return err
	}

	result, err := runPipeline(ctx, deps, entry.Prompt, targetDir)
	if err != nil {
		return err
	}

	if result.Analysis.HasInsight() {
		insight.DisplaySummary(result.Analysis.Insight)
	}

	pterm.Success.Println("Session complete!")
	fmt.Println(lipgloss.BoxStyle.Render(fmt.Sprintf(
		"Prompt saved to:       %s\nArchitecture saved to: %s\nMajor tasks saved to:  %s",
		entry.PromptPath, result.Plan.ArchitecturePath, result.Plan.TasksPath)))

	deps.TokenManagement.DisplayTokens(deps.Config.AIProviderConfig.Provider, deps.Config.AIProviderConfig.Model)
	return nil
}

// runPipeline assembles a coordinator from the loaded configuration and runs
// one pass for the prompt.
func runPipeline(ctx context.Context, deps *RootDependencies, prompt string, targetDir string) (*pipeline.Result, error) {
	extractor := insight.NewExtractor(deps.ChatProvider, targetDir)
	extractor.PayloadLimit = deps.Config.PayloadLimit

	coordinator := pipeline.NewCoordinator(
		deps.Config.CollectorOptions(),
		extractor,
		planner.NewPlanner(deps.ChatProvider),
		executor.NewExecutor(deps.ChatProvider, deps.Config.Theme),
	)

	spinner, _ := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start("Running pipeline...")
	result, err := coordinator.Run(ctx, prompt, targetDir)
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	return result, nil
}
