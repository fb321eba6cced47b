package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gryffinlabs/gryffin/providers/contracts"
	contracts2 "github.com/gryffinlabs/gryffin/token_management/contracts"
	"github.com/gryffinlabs/gryffin/utils"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIConfig implements the chat provider interface for any
// OpenAI-compatible chat-completions endpoint, which covers OpenAI itself
// and local Ollama servers via BaseURL.
type OpenAIConfig struct {
	BaseURL         string
	Model           string
	ApiKey          string
	Temperature     *float32
	TokenManagement contracts2.ITokenManagement
}

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []message       `json:"messages"`
	Temperature    *float32        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewOpenAIChatProvider initializes an OpenAI-compatible provider.
func NewOpenAIChatProvider(config *OpenAIConfig) contracts.IChatProvider {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &OpenAIConfig{
		BaseURL:         baseURL,
		Model:           config.Model,
		ApiKey:          config.ApiKey,
		Temperature:     config.Temperature,
		TokenManagement: config.TokenManagement,
	}
}

func (p *OpenAIConfig) Name() string {
	return "openai:" + p.Model
}

func (p *OpenAIConfig) GenerateJSON(ctx context.Context, systemPrompt string, userPrompt string) (json.RawMessage, error) {
	reqBody := chatCompletionRequest{
		Model: p.Model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature:    p.Temperature,
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/chat/completions", p.BaseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.ApiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.ApiKey)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, fmt.Errorf("request canceled: %w", err)
		}
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("API request failed with status code '%d'", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("error unmarshalling response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, errors.New("no choices in completion response")
	}

	if p.TokenManagement != nil && completion.Usage.PromptTokens > 0 {
		p.TokenManagement.UsedTokens(completion.Usage.PromptTokens, completion.Usage.CompletionTokens)
	}

	return utils.ExtractJSON(completion.Choices[0].Message.Content)
}
