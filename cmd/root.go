package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gryffinlabs/gryffin/config"
	"github.com/gryffinlabs/gryffin/constants/lipgloss"
	"github.com/gryffinlabs/gryffin/providers"
	contracts_provider "github.com/gryffinlabs/gryffin/providers/contracts"
	"github.com/gryffinlabs/gryffin/token_management"
	contracts_token "github.com/gryffinlabs/gryffin/token_management/contracts"
)

// RootDependencies holds the wiring shared by all subcommands.
type RootDependencies struct {
	Config          *config.Config
	ChatProvider    contracts_provider.IChatProvider
	TokenManagement contracts_token.ITokenManagement
	Cwd             string
}

var rootCmd = &cobra.Command{
	Use:   "gryffin",
	Short: "AI-powered development pipeline: prompt in, planned and generated project out.",
	Long: `Gryffin turns a natural-language prompt into generated software artifacts.
It collects the target directory's existing code, analyzes it with an AI provider,
and generates an architecture, a major-task breakdown, and the implementation files,
all conditioned on what is already there.`,
	Run: func(cmd *cobra.Command, args []string) {
		if ok, _ := cmd.Flags().GetBool("version"); ok {
			fmt.Println(config.DefaultConfig.Version)
			return
		}
		_ = cmd.Help()
	},
}

// handleRootCommand loads environment and configuration and builds the
// dependencies every subcommand starts from.
func handleRootCommand(cmd *cobra.Command) (*RootDependencies, error) {
	// A local .env may carry the provider API key.
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.LoadConfigs(cmd.Root(), cwd)
	if err != nil {
		return nil, err
	}

	tokenManagement := token_management.NewTokenManager()
	chatProvider, err := providers.NewChatProvider(context.Background(), cfg.AIProviderConfig, tokenManagement)
	if err != nil {
		return nil, err
	}

	return &RootDependencies{
		Config:          cfg,
		ChatProvider:    chatProvider,
		TokenManagement: tokenManagement,
		Cwd:             cwd,
	}, nil
}

// Execute runs the root command of the CLI.
func Execute() {
	config.InitFlags(rootCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(watchCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}
