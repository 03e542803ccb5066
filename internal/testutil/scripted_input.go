package testutil

import (
	"context"
	"sync"
)

// ScriptedInput replays canned human replies and records every prompt it
// was shown. Once the script is exhausted it answers with an empty string.
type ScriptedInput struct {
	mu      sync.Mutex
	replies []string
	prompts []string
}

// NewScriptedInput creates an input that answers with replies in order.
func NewScriptedInput(replies ...string) *ScriptedInput {
	return &ScriptedInput{replies: replies}
}

// GetHumanInput records prompt and returns the next scripted reply.
func (s *ScriptedInput) GetHumanInput(_ context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, prompt)

	if len(s.replies) == 0 {
		return "", nil
	}

	reply := s.replies[0]
	s.replies = s.replies[1:]

	return reply, nil
}

// Prompts returns the prompts shown so far.
func (s *ScriptedInput) Prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.prompts...)
}

// Calls returns the number of prompts shown so far.
func (s *ScriptedInput) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.prompts)
}
