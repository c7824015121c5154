// Package anthropic provides a completer backed by the Anthropic Claude API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/agentkernel/model"
)

// Options configures the Anthropic completer (model id, temperature, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Completer wraps the Anthropic Messages API behind the generic
// model.Completer interface.
type Completer struct {
	client *anthropic.Client
	opts   Options
}

// NewCompleter creates a new Anthropic completer using the official client.
func NewCompleter(optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model:       anthropic.ModelClaudeSonnet4_0,
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

	client := anthropic.NewClient(clientOpts...)

	return &Completer{
		client: &client,
		opts:   opts,
	}
}

// NewCompleterFromClient creates a new Anthropic completer from an existing client.
func NewCompleterFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Completer {
	opts := Options{
		Model:       anthropic.ModelClaudeSonnet4_0,
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

	params := anthropic.MessageNewParams{
		Model:       c.opts.Model,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return model.Response{}, fmt.Errorf("anthropic completion: %w", err)
	}

	var sb strings.Builder

	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return model.Response{
		Text:  sb.String(),
		Model: string(message.Model),
		Usage: model.TokenUsage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
	}, nil
}

// Info implements model.Completer.
func (c *Completer) Info() model.Info {
	return model.Info{
		Name:     string(c.opts.Model),
		Provider: "anthropic",
	}
}
