package critic

import (
	"context"
	"errors"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.ChatModelGPT4oMini

// OpenAICompleter completes prompts with the OpenAI chat completions API.
type OpenAICompleter struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// NewOpenAICompleter creates a completer. An empty apiKey falls back to
// OPENAI_API_KEY.
func NewOpenAICompleter(model string, maxTokens int, apiKey string) *OpenAICompleter {
	if model == "" {
		model = string(DefaultOpenAIModel)
	}
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	return &OpenAICompleter{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
	}
}

// Complete implements Completer.
func (c *OpenAICompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(c.maxTokens)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
