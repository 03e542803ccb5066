package core

import "context"

// TranscriptStore persists group chat transcripts keyed by run id.
type TranscriptStore interface {
	Append(ctx context.Context, runID string, msg Message) error
	Load(ctx context.Context, runID string) ([]Message, error)
	Delete(ctx context.Context, runID string) error
}
