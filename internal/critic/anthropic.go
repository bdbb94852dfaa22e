package critic

import (
	"context"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

const defaultAnthropicMaxTokens = 1024

// AnthropicCompleter completes prompts with the Anthropic messages API.
type AnthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropicCompleter creates a completer. An empty apiKey falls back to
// ANTHROPIC_API_KEY.
func NewAnthropicCompleter(model string, maxTokens int, apiKey string) *AnthropicCompleter {
	if model == "" {
		model = DefaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	return &AnthropicCompleter{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Complete implements Completer. Text blocks of the reply are concatenated.
func (c *AnthropicCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	return b.String(), nil
}
