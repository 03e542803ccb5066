package core

import "github.com/google/uuid"

// NewID returns a random identifier for runs and containers.
func NewID() string { return uuid.NewString() }
