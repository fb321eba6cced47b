package cmd

import (
	"context"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/gryffinlabs/gryffin/utils"
)

// debounceDelay coalesces editor write bursts into one pipeline run.
const debounceDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Watch prompt.txt and re-run the pipeline on changes.",
	Long: `The 'watch' subcommand monitors the target directory's prompt.txt. Whenever
a new prompt line is appended, the latest prompt is picked up and the pipeline
runs again, so the prompt file becomes a simple queue for regeneration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := handleRootCommand(cmd)
		if err != nil {
			return err
		}
		return handleWatchCommand(deps, targetDirArg(deps.Cwd, args))
	},
}

func handleWatchCommand(deps *RootDependencies, targetDir string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	promptPath := filepath.Join(targetDir, utils.PromptFileName)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save and
	// a file watch dies with the old inode.
	if err := watcher.Add(targetDir); err != nil {
		return err
	}

	pterm.Info.Printf("Watching %s for changes...\n", promptPath)

	var lastPrompt string
	var debounce *time.Timer
	fire := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			pterm.Info.Println("Watcher stopped.")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != promptPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			pterm.Warning.Printf("Watcher error: %v\n", err)

		case <-fire:
			prompt, err := utils.LatestPrompt(promptPath)
			if err != nil {
				pterm.Warning.Printf("Reading %s: %v\n", utils.PromptFileName, err)
				continue
			}
			if prompt == "" || prompt == lastPrompt {
				continue
			}
			lastPrompt = prompt

			pterm.Info.Printf("Detected new prompt: %s\n", prompt)
			result, err := runPipeline(ctx, deps, prompt, targetDir)
			if err != nil {
				pterm.Error.Printf("Pipeline run failed: %v\n", err)
				continue
			}
			pterm.Success.Printf("Architecture updated: %s\n", result.Plan.ArchitecturePath)
			pterm.Success.Printf("Tasks updated: %s\n", result.Plan.TasksPath)
		}
	}
}
