package agent

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// HumanInput supplies replies typed by a human. An empty string means the
// human skipped the prompt.
type HumanInput interface {
	GetHumanInput(ctx context.Context, prompt string) (string, error)
}

// HumanInputFunc adapts a function to HumanInput.
type HumanInputFunc func(ctx context.Context, prompt string) (string, error)

// GetHumanInput calls f.
func (f HumanInputFunc) GetHumanInput(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// ConsoleInput prompts on a writer and reads one line per prompt.
type ConsoleInput struct {
	mu     sync.Mutex
	reader *bufio.Reader
	out    io.Writer
}

// NewConsoleInput creates a console input reading from in and prompting on out.
func NewConsoleInput(in io.Reader, out io.Writer) *ConsoleInput {
	return &ConsoleInput{reader: bufio.NewReader(in), out: out}
}

// GetHumanInput prints prompt and returns the next line without the line
// terminator. End of input counts as an empty reply.
func (c *ConsoleInput) GetHumanInput(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprint(c.out, prompt); err != nil {
		return "", err
	}

	line, err := c.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}
