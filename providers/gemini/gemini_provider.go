package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	genai "google.golang.org/genai"

	"github.com/gryffinlabs/gryffin/providers/contracts"
	contracts2 "github.com/gryffinlabs/gryffin/token_management/contracts"
	"github.com/gryffinlabs/gryffin/utils"
)

var ErrEmptyResponse = errors.New("gemini: empty response from model")

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	Model           string
	ApiKey          string
	Temperature     *float32
	TokenManagement contracts2.ITokenManagement
}

// geminiProvider is a thin wrapper around the official genai client.
type geminiProvider struct {
	cli    *genai.Client
	config *GeminiConfig
}

// NewGeminiChatProvider initializes a provider backed by the Gemini API.
func NewGeminiChatProvider(ctx context.Context, config *GeminiConfig) (contracts.IChatProvider, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.ApiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &geminiProvider{cli: cli, config: config}, nil
}

func (g *geminiProvider) Name() string {
	return "gemini:" + g.config.Model
}

// GenerateJSON sends the concatenated prompts and requests application/json.
func (g *geminiProvider) GenerateJSON(ctx context.Context, systemPrompt string, userPrompt string) (json.RawMessage, error) {
	full := systemPrompt + "\n\n" + userPrompt

	resp, err := g.cli.Models.GenerateContent(ctx, g.config.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      g.config.Temperature,
		},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	if g.config.TokenManagement != nil && resp.UsageMetadata != nil {
		g.config.TokenManagement.UsedTokens(
			int(resp.UsageMetadata.PromptTokenCount),
			int(resp.UsageMetadata.CandidatesTokenCount),
		)
	}

	return utils.ExtractJSON(resp.Candidates[0].Content.Parts[0].Text)
}
