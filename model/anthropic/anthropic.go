// Package anthropic provides a model wrapper for the Anthropic Claude API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/model"
)

// Options configures the Anthropic model adapter.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	BaseURL     string
}

// Model wraps the Anthropic Messages API behind the generic model.Model interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0,
		MaxTokens:   4096,
	}
}

// NewModel creates a new Anthropic model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{
		client: &client,
		opts:   opts,
	}
}

// NewModelFromClient creates a new Anthropic model from an existing client
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{
		client: client,
		opts:   opts,
	}
}

// Generate implements model.Model. Streaming requests are answered with a
// single final response.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		params := anthropic.MessageNewParams{
			Model:       m.opts.Model,
			Messages:    buildMessages(req.Messages),
			MaxTokens:   m.opts.MaxTokens,
			Temperature: anthropic.Float(m.opts.Temperature),
		}
		if system := systemBlocks(req.Messages); len(system) > 0 {
			params.System = system
		}
		if len(req.Tools) > 0 {
			params.Tools = buildTools(req.Tools)
		}

		resp, err := m.client.Messages.New(ctx, params)
		if err != nil {
			errCh <- fmt.Errorf("anthropic api error: %w", err)
			return
		}

		msg := core.Message{Role: core.RoleAssistant}
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				msg.Content += block.AsText().Text
			case "tool_use":
				if msg.FunctionCall != nil {
					continue
				}
				toolBlock := block.AsToolUse()
				args := ""
				if toolBlock.Input != nil {
					if raw, err := json.Marshal(toolBlock.Input); err == nil {
						args = string(raw)
					}
				}
				msg.FunctionCall = &core.FunctionCall{ID: toolBlock.ID, Name: toolBlock.Name, Arguments: args}
			}
		}

		finishReason := "stop"
		if resp.StopReason != "" {
			finishReason = string(resp.StopReason)
		}

		out <- model.Response{
			ID:           resp.ID,
			Choices:      []core.Message{msg},
			FinishReason: finishReason,
			Usage: &model.TokenUsage{
				PromptTokens:     int(resp.Usage.InputTokens),
				CompletionTokens: int(resp.Usage.OutputTokens),
				TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
			},
		}
	}()

	return out, errCh
}

// buildMessages converts agentchat messages to Anthropic message params.
// System messages are sent separately; function results become tool_result
// blocks in a user turn.
func buildMessages(msgs []core.Message) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, msg := range msgs {
		switch msg.Role {
		case core.RoleSystem:
			continue
		case core.RoleAssistant:
			var content []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				content = append(content, anthropic.NewTextBlock(msg.Content))
			}
			if fc := msg.FunctionCall; fc != nil {
				var input any
				if fc.Arguments != "" {
					if err := json.Unmarshal([]byte(fc.Arguments), &input); err != nil {
						input = fc.Arguments
					}
				}
				content = append(content, anthropic.NewToolUseBlock(fc.ID, input, fc.Name))
			}
			if len(content) > 0 {
				messages = append(messages, anthropic.NewAssistantMessage(content...))
			}
		case core.RoleFunction:
			if msg.ToolCallID != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, false)))
				continue
			}
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf("Result of %s: %s", msg.Name, msg.Content))))
		default:
			if msg.Content != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
			}
		}
	}
	return messages
}

func systemBlocks(msgs []core.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, msg := range msgs {
		if msg.Role == core.RoleSystem && msg.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: msg.Content})
		}
	}
	return blocks
}

// buildTools converts tool definitions to Anthropic tool format
func buildTools(tools []model.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if params := tool.Function.Parameters; params != nil {
			if properties, ok := params["properties"]; ok {
				inputSchema.Properties = properties
			}
			switch req := params["required"].(type) {
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
		out[i] = anthropic.ToolUnionParamOfTool(inputSchema, tool.Function.Name)
	}
	return out
}

// Info returns metadata describing this Anthropic model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          string(m.opts.Model),
		Provider:      "anthropic",
		SupportsTools: true,
	}
}
