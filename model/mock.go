package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/agentchat/core"
)

// MockModel is a lightweight in-memory Model useful for tests & examples.
// It answers with a canned response keyed by the last message content.
type MockModel struct {
	info      Info
	mu        sync.RWMutex
	responses map[string]string
}

// NewMockModel constructs a MockModel with basic tool support enabled.
func NewMockModel(name, provider string) *MockModel {
	return &MockModel{
		info: Info{
			Name:          name,
			Provider:      provider,
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input prompt.
func (m *MockModel) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Generate implements Model; emits optional streaming char chunks then final response.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(respCh)
		defer close(errCh)
		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}
		input := req.Messages[len(req.Messages)-1].Content
		m.mu.RLock()
		full := m.responses[input]
		m.mu.RUnlock()
		if full == "" {
			full = fmt.Sprintf("Mock response to: %s", input)
		}
		if req.Stream {
			for _, r := range full {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case respCh <- Response{Partial: true, Choices: []core.Message{core.NewAssistantMessage(string(r))}}:
				}
			}
		}
		respCh <- Response{
			Choices:      []core.Message{core.NewAssistantMessage(full)},
			FinishReason: "stop",
		}
	}()
	return respCh, errCh
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }

// ScriptedModel replays a fixed sequence of replies, one per Generate call,
// and records every request it receives.
type ScriptedModel struct {
	mu       sync.Mutex
	replies  []core.Message
	errs     map[int]error
	requests []Request
	next     int
}

// NewScriptedModel creates a ScriptedModel answering with the given texts.
func NewScriptedModel(replies ...string) *ScriptedModel {
	s := &ScriptedModel{errs: map[int]error{}}
	for _, r := range replies {
		s.replies = append(s.replies, core.NewAssistantMessage(r))
	}
	return s
}

// AddMessage appends a full reply message (e.g. one carrying a function call).
func (s *ScriptedModel) AddMessage(msg core.Message) *ScriptedModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, msg)
	return s
}

// FailAt makes the n-th call (zero based) fail with err instead of replying.
// Failed calls do not consume a scripted reply.
func (s *ScriptedModel) FailAt(n int, err error) *ScriptedModel {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs[n] = err
	return s
}

// Generate returns the next scripted reply.
func (s *ScriptedModel) Generate(_ context.Context, req Request) (<-chan Response, <-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := len(s.requests)
	s.requests = append(s.requests, Request{Messages: core.CloneMessages(req.Messages), Tools: req.Tools, Stream: req.Stream})

	if err, ok := s.errs[call]; ok {
		return emit(nil, err)
	}
	if s.next >= len(s.replies) {
		return emit(nil, fmt.Errorf("scripted model exhausted after %d replies", len(s.replies)))
	}
	msg := s.replies[s.next].Clone()
	s.next++
	return emit(&Response{Choices: []core.Message{msg}, FinishReason: "stop"}, nil)
}

// Requests returns every request received so far.
func (s *ScriptedModel) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Calls returns the number of Generate calls.
func (s *ScriptedModel) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Info implements Model.
func (s *ScriptedModel) Info() Info { return Info{Name: "scripted", Provider: "mock", SupportsTools: true} }
