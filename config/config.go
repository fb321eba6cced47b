package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gryffinlabs/gryffin/collector"
	"github.com/gryffinlabs/gryffin/constants/lipgloss"
	"github.com/gryffinlabs/gryffin/insight"
	"github.com/gryffinlabs/gryffin/providers"
)

// Config represents the structure of the configuration file
type Config struct {
	Version          string                      `mapstructure:"version"`
	Theme            string                      `mapstructure:"theme"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config"`

	// Collection and analysis limits, in bytes.
	PerFileLimit    int64    `mapstructure:"per_file_limit"`
	TotalLimit      int64    `mapstructure:"total_limit"`
	PayloadLimit    int      `mapstructure:"payload_limit"`
	ExcludePatterns []string `mapstructure:"exclude_patterns"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version: "0.1.0",
	Theme:   "dracula",
	AIProviderConfig: &providers.AIProviderConfig{
		Provider:    "gemini",
		BaseURL:     "",
		Model:       "gemini-2.5-flash",
		Temperature: nil,
		ApiKey:      "",
	},
	PerFileLimit: collector.DefaultPerFileLimit,
	TotalLimit:   collector.DefaultTotalLimit,
	PayloadLimit: insight.DefaultPayloadLimit,
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	var config *Config

	setDefaults()

	viper.AutomaticEnv()
	bindEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		// Look for configuration files in the current directory
		viper.SetConfigName("gryffin-config")
		viper.AddConfigPath(cwd)

		// Support both YAML and JSON formats
		viper.SetConfigType("yaml")
		if err := viper.ReadInConfig(); err != nil {
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				fmt.Println(lipgloss.Yellow.Render("No configuration file found, using defaults"))
			}
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("per_file_limit", DefaultConfig.PerFileLimit)
	viper.SetDefault("total_limit", DefaultConfig.TotalLimit)
	viper.SetDefault("payload_limit", DefaultConfig.PayloadLimit)
	viper.SetDefault("exclude_patterns", DefaultConfig.ExcludePatterns)
	viper.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	viper.SetDefault("ai_provider_config.base_url", DefaultConfig.AIProviderConfig.BaseURL)
	viper.SetDefault("ai_provider_config.model", DefaultConfig.AIProviderConfig.Model)
	viper.SetDefault("ai_provider_config.temperature", DefaultConfig.AIProviderConfig.Temperature)
	viper.SetDefault("ai_provider_config.api_key", DefaultConfig.AIProviderConfig.ApiKey)
}

// bindEnv explicitly binds environment variables to configuration keys
func bindEnv() {
	_ = viper.BindEnv("theme", "THEME")
	_ = viper.BindEnv("per_file_limit", "PER_FILE_LIMIT")
	_ = viper.BindEnv("total_limit", "TOTAL_LIMIT")
	_ = viper.BindEnv("payload_limit", "PAYLOAD_LIMIT")
	_ = viper.BindEnv("ai_provider_config.provider", "PROVIDER")
	_ = viper.BindEnv("ai_provider_config.base_url", "BASE_URL")
	_ = viper.BindEnv("ai_provider_config.model", "MODEL")
	_ = viper.BindEnv("ai_provider_config.temperature", "TEMPERATURE")
	_ = viper.BindEnv("ai_provider_config.api_key", "API_KEY", "GEMINI_API_KEY")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("per_file_limit", rootCmd.PersistentFlags().Lookup("per_file_limit"))
	_ = viper.BindPFlag("total_limit", rootCmd.PersistentFlags().Lookup("total_limit"))
	_ = viper.BindPFlag("payload_limit", rootCmd.PersistentFlags().Lookup("payload_limit"))
	_ = viper.BindPFlag("exclude_patterns", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("ai_provider_config.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("ai_provider_config.base_url", rootCmd.PersistentFlags().Lookup("base_url"))
	_ = viper.BindPFlag("ai_provider_config.model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("ai_provider_config.temperature", rootCmd.PersistentFlags().Lookup("temperature"))
	_ = viper.BindPFlag("ai_provider_config.api_key", rootCmd.PersistentFlags().Lookup("api_key"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Theme for syntax-highlighted previews (e.g. 'dracula', 'light', 'dark').")
	rootCmd.PersistentFlags().Int64("per_file_limit", DefaultConfig.PerFileLimit, "Maximum size in bytes of a single collected file.")
	rootCmd.PersistentFlags().Int64("total_limit", DefaultConfig.TotalLimit, "Maximum total size in bytes of the collected snapshot.")
	rootCmd.PersistentFlags().Int("payload_limit", DefaultConfig.PayloadLimit, "Maximum size in bytes of the analysis payload sent to the provider.")
	rootCmd.PersistentFlags().StringSlice("exclude", nil, "Additional glob patterns to exclude from collection (e.g. '**/*.pb.go').")

	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")

	rootCmd.PersistentFlags().String("provider", DefaultConfig.AIProviderConfig.Provider, "The name of the AI provider (e.g. 'gemini', 'openai', 'ollama').")
	rootCmd.PersistentFlags().String("base_url", DefaultConfig.AIProviderConfig.BaseURL, "The base URL of the AI provider for OpenAI-compatible endpoints.")
	rootCmd.PersistentFlags().String("model", DefaultConfig.AIProviderConfig.Model, "The name of the model used for generation.")
	rootCmd.PersistentFlags().Float32("temperature", 0, "Adjusts the model's creativity (0-1).")
	rootCmd.PersistentFlags().String("api_key", DefaultConfig.AIProviderConfig.ApiKey, "The API key used to authenticate with the AI provider.")
}

// CollectorOptions derives the collection limits from the configuration.
func (c *Config) CollectorOptions() collector.Options {
	return collector.Options{
		PerFileLimit:    c.PerFileLimit,
		TotalLimit:      c.TotalLimit,
		ExcludePatterns: c.ExcludePatterns,
	}
}
