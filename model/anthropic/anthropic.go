// Package anthropic implements model.Gateway on the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"
	"github.com/solara-ai/solara/core"
	"github.com/solara-ai/solara/model"
)

// Options configures the Anthropic gateway adapter (model id, temperature,
// max tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Gateway wraps the Anthropic Messages API behind model.Gateway.
type Gateway struct {
	client *anthropic.Client
	opts   Options
}

// New creates a gateway using the official client.
func New(optFns ...func(o *Options)) *Gateway {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
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

	return &Gateway{client: &client, opts: opts}
}

// NewFromClient creates a gateway from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Gateway {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Gateway{client: client, opts: opts}
}

// Invoke implements model.Gateway with a single non-streaming message call.
func (g *Gateway) Invoke(ctx context.Context, req model.Request) (*model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:       g.opts.Model,
		Messages:    buildMessages(req.Messages),
		MaxTokens:   g.opts.MaxTokens,
		Temperature: anthropic.Float(g.opts.Temperature),
	}

	if systemBlocks := buildSystemBlocks(req); len(systemBlocks) > 0 {
		params.System = systemBlocks
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	out := &model.Response{}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Text += block.AsText().Text
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := map[string]any{}
			if raw, err := json.Marshal(toolBlock.Input); err == nil {
				_ = json.Unmarshal(raw, &args)
			}
			out.ToolCalls = append(out.ToolCalls, core.ToolCall{
				ID:   toolBlock.ID,
				Name: toolBlock.Name,
				Args: args,
			})
		}
	}
	return out, nil
}

// buildSystemBlocks collects the request instructions plus any system turns
// into Anthropic system blocks.
func buildSystemBlocks(req model.Request) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	if req.Instructions != "" {
		blocks = append(blocks, anthropic.TextBlockParam{Text: req.Instructions})
	}
	for _, msg := range req.Messages {
		if msg.Role == core.RoleSystem && msg.Text != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Text})
		}
	}
	return blocks
}

// buildMessages converts normalized messages into Anthropic message params.
// Tool result turns become user messages carrying tool_result blocks, as the
// Messages API requires.
func buildMessages(msgs []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, msg := range msgs {
		switch msg.Role {
		case core.RoleSystem:
			continue // handled as system blocks
		case core.RoleUser:
			if msg.Text != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Text)))
			}
		case core.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if msg.Text != "" {
				content = append(content, anthropic.NewTextBlock(msg.Text))
			}
			for _, tc := range msg.ToolCalls {
				content = append(content, anthropic.NewToolUseBlock(tc.ID, tc.Args, tc.Name))
			}
			if len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		case core.RoleTool:
			if msg.ToolResult != nil {
				messages = append(messages, anthropic.NewUserMessage(
					anthropic.NewToolResultBlock(msg.ToolResult.CallID, msg.ToolResult.Content, msg.ToolResult.IsError),
				))
			}
		}
	}
	return messages
}

// buildTools converts tool specs to the Anthropic tool format.
func buildTools(specs []model.ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(specs))
	for i, spec := range specs {
		inputSchema := anthropic.ToolInputSchemaParam{Type: constant.Object("object")}
		if spec.Parameters != nil {
			if properties, ok := spec.Parameters["properties"]; ok {
				inputSchema.Properties = properties
			}
			switch req := spec.Parameters["required"].(type) {
			case []string:
				inputSchema.Required = req
			case []any:
				for _, r := range req {
					if s, ok := r.(string); ok {
						inputSchema.Required = append(inputSchema.Required, s)
					}
				}
			}
		}
		tools[i] = anthropic.ToolUnionParamOfTool(inputSchema, spec.Name)
	}
	return tools
}

// Info returns metadata describing this Anthropic gateway.
func (g *Gateway) Info() model.Info {
	return model.Info{
		Name:          string(g.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
