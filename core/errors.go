package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument reports a missing or malformed input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupportedLanguage reports a code block language the sandbox cannot run.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrAmbiguousSpeaker reports that speaker selection did not name exactly one agent.
	ErrAmbiguousSpeaker = errors.New("ambiguous speaker")
	// ErrExecutionFault reports an I/O or process failure while running code.
	ErrExecutionFault = errors.New("execution fault")
	// ErrNoAdminFallback reports a failed group chat turn with no admin to take over.
	ErrNoAdminFallback = errors.New("no admin fallback")
)

// AmbiguousSpeakerError carries the raw selection text and the candidates it
// was matched against.
type AmbiguousSpeakerError struct {
	Response   string
	Candidates []string
	Mentions   []string
}

func (e *AmbiguousSpeakerError) Error() string {
	return fmt.Sprintf("%s: response %q mentions %d of [%s]", ErrAmbiguousSpeaker, e.Response, len(e.Mentions), strings.Join(e.Candidates, ", "))
}

// Unwrap allows errors.Is(err, ErrAmbiguousSpeaker).
func (e *AmbiguousSpeakerError) Unwrap() error { return ErrAmbiguousSpeaker }

// InvalidArgument wraps ErrInvalidArgument with a formatted message.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
