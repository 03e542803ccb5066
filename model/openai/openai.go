// Package openai provides an implementation of model.Model using the OpenAI
// Chat Completions API (including streaming + function/tool calling). It
// adapts agentchat messages into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/model"
)

// aggCall aggregates partial tool call streaming deltas (id, name, arguments).
type aggCall struct{ id, name, args string }

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
}

// Model wraps the OpenAI Chat Completions API behind the generic model.Model interface.
type Model struct {
	client *openai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0,
		MaxCompletionTokens: 4096,
	}
}

// NewModel creates a new OpenAI model using the official client. The API key
// is read from OPENAI_API_KEY unless Options.APIKey is set.
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
	client := openai.NewClient(clientOpts...)
	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Generate implements unified streaming / non-streaming generation.
func (m *Model) Generate(ctx context.Context, req model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 32)
	errCh := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errCh)
		params := m.buildParams(req, buildMessages(req.Messages))
		if req.Stream {
			m.handleStreaming(ctx, params, out, errCh)
			return
		}
		m.handleNonStreaming(ctx, params, out, errCh)
	}()
	return out, errCh
}

// buildMessages converts agentchat messages into OpenAI chat messages.
// Function results answer the preceding tool call when they carry its id;
// otherwise they are passed on as user text.
func buildMessages(msgs []core.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case core.RoleAssistant:
			if msg.FunctionCall == nil {
				messages = append(messages, openai.AssistantMessage(msg.Content))
				continue
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				Role: "assistant",
				ToolCalls: []openai.ChatCompletionMessageToolCallParam{{
					ID:   msg.FunctionCall.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      msg.FunctionCall.Name,
						Arguments: msg.FunctionCall.Arguments,
					},
				}},
			}})
		case core.RoleFunction:
			if msg.ToolCallID != "" {
				messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
				continue
			}
			messages = append(messages, openai.UserMessage(fmt.Sprintf("Result of %s: %s", msg.Name, msg.Content)))
		default:
			messages = append(messages, openai.UserMessage(msg.Content))
		}
	}
	return messages
}

// buildParams assembles the OpenAI request parameters including tool definitions.
func (m *Model) buildParams(
	req model.Request,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}
	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, tdef := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        tdef.Function.Name,
				Description: openai.String(tdef.Function.Description),
				Parameters:  tdef.Function.Parameters,
			},
		}
	}
	params.Tools = tools
	return params
}

// handleStreaming forwards text deltas and emits one final aggregated message.
func (m *Model) handleStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	stream := m.client.Chat.Completions.NewStreaming(ctx, params)
	var text strings.Builder
	var calls []*aggCall
	var finish string
	for stream.Next() {
		ck := stream.Current()
		for _, ch := range ck.Choices {
			if ch.Index != 0 {
				continue
			}
			if ch.Delta.Content != "" {
				text.WriteString(ch.Delta.Content)
				out <- model.Response{ID: ck.ID, Partial: true, Choices: []core.Message{core.NewAssistantMessage(ch.Delta.Content)}}
			}
			for _, tc := range ch.Delta.ToolCalls {
				for int(tc.Index) >= len(calls) {
					calls = append(calls, &aggCall{})
				}
				ac := calls[tc.Index]
				if tc.ID != "" {
					ac.id = tc.ID
				}
				if tc.Function.Name != "" {
					ac.name = tc.Function.Name
				}
				ac.args += tc.Function.Arguments
			}
			if ch.FinishReason != "" {
				finish = ch.FinishReason
			}
		}
	}
	if err := stream.Err(); err != nil {
		errCh <- fmt.Errorf("openai streaming error: %w", err)
		return
	}
	msg := core.NewAssistantMessage(text.String())
	if len(calls) > 0 {
		msg.FunctionCall = &core.FunctionCall{ID: calls[0].id, Name: calls[0].name, Arguments: calls[0].args}
	}
	out <- model.Response{Choices: []core.Message{msg}, FinishReason: finish}
}

// handleNonStreaming processes a normal (non-streaming) completion. Every
// choice becomes a candidate; only the first tool call of a choice is kept.
func (m *Model) handleNonStreaming(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
	out chan<- model.Response,
	errCh chan<- error,
) {
	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		errCh <- fmt.Errorf("openai api error: %w", err)
		return
	}
	if len(resp.Choices) == 0 {
		errCh <- fmt.Errorf("no choices returned")
		return
	}
	choices := make([]core.Message, 0, len(resp.Choices))
	for _, ch := range resp.Choices {
		msg := core.NewAssistantMessage(ch.Message.Content)
		if len(ch.Message.ToolCalls) > 0 {
			tc := ch.Message.ToolCalls[0]
			msg.FunctionCall = &core.FunctionCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments}
		}
		choices = append(choices, msg)
	}
	out <- model.Response{
		ID:           resp.ID,
		Choices:      choices,
		FinishReason: resp.Choices[0].FinishReason,
		Usage: &model.TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
