package convert

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type claudeGenerator struct {
	client anthropic.Client
	model  string
}

func newClaudeGenerator(apiKey, model string) (*claudeGenerator, error) {
	key, err := resolveCredential(apiKey, "ANTHROPIC_API_KEY")
	if err != nil {
		return nil, err
	}

	return &claudeGenerator{
		client: anthropic.NewClient(option.WithAPIKey(key)),
		model:  resolveModel(model, "ANTHROPIC_API_MODEL", "claude-3-5-sonnet-20241022"),
	}, nil
}

func (g *claudeGenerator) Name() string {
	return "claude"
}

func (g *claudeGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude generation failed: %w", err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			content.WriteString(text.Text)
		}
	}
	return content.String(), nil
}
