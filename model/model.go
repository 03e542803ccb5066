package model

import (
	"context"
	"errors"

	"github.com/hupe1980/agentchat/core"
)

// ErrNoResponse is returned by Complete when a model closed its channels
// without a final response.
var ErrNoResponse = errors.New("model returned no response")

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function exposed to the model.
// Parameters is a JSON Schema object.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is the normalized completion input: the system message followed by
// the conversation history.
type Request struct {
	Messages []core.Message   `json:"messages"`
	Tools    []ToolDefinition `json:"tools,omitempty"`
	Stream   bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model. Choices holds the
// candidate messages; partial chunks carry a single delta candidate.
type Response struct {
	ID           string         `json:"id"`
	Partial      bool           `json:"partial"`
	Choices      []core.Message `json:"choices"`
	FinishReason string         `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage    `json:"usage,omitempty"`
}

// First returns the first candidate message.
func (r Response) First() (core.Message, bool) {
	if len(r.Choices) == 0 {
		return core.Message{}, false
	}
	return r.Choices[0], true
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required by agents to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Complete runs req against m and returns the final (non partial) response.
func Complete(ctx context.Context, m Model, req Request) (*Response, error) {
	respCh, errCh := m.Generate(ctx, req)

	var final *Response
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case r, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !r.Partial {
				final = &r
			}
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}
	if final == nil {
		return nil, ErrNoResponse
	}
	return final, nil
}

// emit sends a single final response, or err, on fresh channels.
func emit(resp *Response, err error) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 1)
	errCh := make(chan error, 1)
	if err != nil {
		errCh <- err
	} else if resp != nil {
		respCh <- *resp
	}
	close(respCh)
	close(errCh)
	return respCh, errCh
}
