package providers

import (
	"context"
	"fmt"

	"github.com/gryffinlabs/gryffin/providers/contracts"
	"github.com/gryffinlabs/gryffin/providers/gemini"
	"github.com/gryffinlabs/gryffin/providers/openai"
	contracts2 "github.com/gryffinlabs/gryffin/token_management/contracts"
)

// AIProviderConfig holds the provider settings shared by all commands.
type AIProviderConfig struct {
	Provider    string   `mapstructure:"provider"`
	BaseURL     string   `mapstructure:"base_url"`
	Model       string   `mapstructure:"model"`
	ApiKey      string   `mapstructure:"api_key"`
	Temperature *float32 `mapstructure:"temperature"`
}

// NewChatProvider builds the configured chat provider. A missing API key for
// a hosted provider yields a nil provider, which downstream stages treat as
// offline mode with deterministic fallbacks.
func NewChatProvider(ctx context.Context, config *AIProviderConfig, tokenManagement contracts2.ITokenManagement) (contracts.IChatProvider, error) {
	switch config.Provider {
	case "openai":
		if config.ApiKey == "" {
			return nil, nil
		}
		return openai.NewOpenAIChatProvider(&openai.OpenAIConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			ApiKey:          config.ApiKey,
			Temperature:     config.Temperature,
			TokenManagement: tokenManagement,
		}), nil
	case "ollama":
		// Local server, no key required; speaks the OpenAI wire format.
		return openai.NewOpenAIChatProvider(&openai.OpenAIConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			TokenManagement: tokenManagement,
		}), nil
	case "gemini":
		if config.ApiKey == "" {
			return nil, nil
		}
		return gemini.NewGeminiChatProvider(ctx, &gemini.GeminiConfig{
			Model:           config.Model,
			ApiKey:          config.ApiKey,
			Temperature:     config.Temperature,
			TokenManagement: tokenManagement,
		})
	default:
		return nil, fmt.Errorf("unsupported provider: %s", config.Provider)
	}
}
