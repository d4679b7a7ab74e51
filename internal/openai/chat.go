package openai

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/syllabiq/syllabiq/internal/domain"
)

// ChatAPI is the surface of the OpenAI client used for chat completion.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ChatClient produces chat completions with a fixed generation model.
type ChatClient struct {
	api   ChatAPI
	model string
}

// NewChatClient creates a chat completion client.
func NewChatClient(apiKey, model string) (*ChatClient, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	return &ChatClient{api: openai.NewClient(apiKey), model: model}, nil
}

// NewChatClientWithAPI creates a client with a custom API implementation, used in tests.
func NewChatClientWithAPI(api ChatAPI, model string) *ChatClient {
	return &ChatClient{api: api, model: model}
}

// Complete sends a system+user prompt pair and returns the model's text.
// Transient failures are retried with exponential backoff before surfacing
// as an upstream error.
func (c *ChatClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	var resp openai.ChatCompletionResponse
	op := func() error {
		var err error
		resp, err = c.api.CreateChatCompletion(ctx, req)
		return err
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, 2), ctx)); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "chat completion", err)
	}

	if len(resp.Choices) == 0 {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "chat completion", errors.New("empty response"))
	}
	return resp.Choices[0].Message.Content, nil
}

// UnavailableChatClient fails every completion deterministically. Used when
// no API key is configured.
type UnavailableChatClient struct{}

func (UnavailableChatClient) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", domain.ErrGenerationUnavailable
}
