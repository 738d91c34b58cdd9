package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

type openaiClient struct {
	client *openai.Client
	model  string
}

// newOpenAI builds a chat-completion client. baseURL is only set by tests.
func newOpenAI(model, apiKey, baseURL string) *openaiClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &openaiClient{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *openaiClient) Close() error { return nil }

func (o *openaiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxCompletionTokens: 500,
	})
	if err != nil {
		return "", fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
