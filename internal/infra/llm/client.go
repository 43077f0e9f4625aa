// Package llm wraps the OpenAI-compatible completion API used as the
// conversational fallback when no command or pattern matches.
package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const completionTimeout = 30 * time.Second

const systemPrompt = `You are a concise assistant embedded in an anonymous-payments messaging agent.
You can explain aliases, payment links and the available commands
(/set, /status, /balance, /links, /help, /fkey). You cannot move funds
yourself. Keep replies under 80 words and never invent payment links.`

// Client is the completion client
type Client struct {
	client *openai.Client
	model  string
}

// NewClient creates a completion client. baseURL may be empty for the
// default API endpoint.
func NewClient(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = openai.GPT4oMini
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Complete sends a prompt and returns the model's reply
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
		MaxTokens:   200,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return resp.Choices[0].Message.Content, nil
}
