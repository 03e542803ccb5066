package transcript

import (
	"context"
	"sort"
	"sync"

	"github.com/hupe1980/agentchat/core"
)

var _ core.TranscriptStore = (*InMemoryStore)(nil)

// InMemoryStore is a volatile TranscriptStore keeping transcripts in a
// process local map. It is safe for concurrent access and best suited for
// tests or single process runs. Loaded messages are copies.
type InMemoryStore struct {
	mu   sync.RWMutex
	runs map[string][]core.Message
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{runs: make(map[string][]core.Message)}
}

// Append adds msg to the transcript of runID, creating it lazily.
func (s *InMemoryStore) Append(_ context.Context, runID string, msg core.Message) error {
	if runID == "" {
		return core.InvalidArgument("run id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[runID] = append(s.runs[runID], msg.Clone())

	return nil
}

// Load returns the transcript of runID; unknown runs yield an empty slice.
func (s *InMemoryStore) Load(_ context.Context, runID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := core.CloneMessages(s.runs[runID])
	if msgs == nil {
		msgs = []core.Message{}
	}

	return msgs, nil
}

// Delete drops the transcript of runID.
func (s *InMemoryStore) Delete(_ context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.runs, runID)

	return nil
}

// Runs returns the ids of all stored runs, sorted.
func (s *InMemoryStore) Runs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.runs))
	for id := range s.runs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
