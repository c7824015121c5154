// Package openai provides a completer backed by the OpenAI Chat
// Completions API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/agentkernel/model"
)

// Options configures the OpenAI completer.
type Options struct {
	Model       openai.ChatModel
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Completer wraps the OpenAI Chat Completions API behind the generic
// model.Completer interface.
type Completer struct {
	client *openai.Client
	opts   Options
}

// NewCompleter creates a new OpenAI completer using the official client.
func NewCompleter(optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model:       openai.ChatModelGPT4o,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)

	return &Completer{
		client: &client,
		opts:   opts,
	}
}

// NewCompleterFromClient creates a new OpenAI completer from an existing client.
func NewCompleterFromClient(client *openai.Client, optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model:       openai.ChatModelGPT4o,
		Temperature: 0.7,
		MaxTokens:   4096,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Completer{
		client: client,
		opts:   opts,
	}
}

// Complete implements model.Completer.
func (c *Completer) Complete(ctx context.Context, req model.Request) (model.Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.opts.MaxTokens
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	messages = append(messages, openai.UserMessage(req.Prompt))

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               c.opts.Model,
		Messages:            messages,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	})
	if err != nil {
		return model.Response{}, fmt.Errorf("openai completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return model.Response{}, fmt.Errorf("openai completion: empty choices")
	}

	return model.Response{
		Text:  completion.Choices[0].Message.Content,
		Model: completion.Model,
		Usage: model.TokenUsage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
		},
	}, nil
}

// Info implements model.Completer.
func (c *Completer) Info() model.Info {
	return model.Info{
		Name:     c.opts.Model,
		Provider: "openai",
	}
}
