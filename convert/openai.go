package convert

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// grokBaseURL routes the OpenAI-compatible client at xAI.
const grokBaseURL = "https://api.x.ai/v1"

// openAIGenerator serves both the OpenAI and Grok backends; Grok exposes an
// OpenAI-compatible API behind a different base URL.
type openAIGenerator struct {
	client openai.Client
	model  string
	name   string
}

func newOpenAIGenerator(name, apiKey, credentialEnv, baseURL, model, modelEnv, defaultModel string) (*openAIGenerator, error) {
	key, err := resolveCredential(apiKey, credentialEnv)
	if err != nil {
		return nil, err
	}

	opts := []option.RequestOption{option.WithAPIKey(key)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &openAIGenerator{
		client: openai.NewClient(opts...),
		model:  resolveModel(model, modelEnv, defaultModel),
		name:   name,
	}, nil
}

func (g *openAIGenerator) Name() string {
	return g.name
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%s generation failed: %w", g.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", g.name)
	}
	return resp.Choices[0].Message.Content, nil
}
