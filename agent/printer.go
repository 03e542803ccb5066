package agent

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/hupe1980/agentchat/core"
)

var separator = strings.Repeat("-", 80)

// Printer writes the human readable conversation transcript.
type Printer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPrinter creates a printer writing to w. A nil writer discards output.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = io.Discard
	}
	return &Printer{w: w}
}

// PrintMessage writes one received message.
func (p *Printer) PrintMessage(sender, recipient string, msg core.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder

	fmt.Fprintf(&b, "%s (to %s):\n\n", sender, recipient)

	if msg.Role == core.RoleFunction {
		header := fmt.Sprintf("***** Response from calling function %q *****", msg.Name)
		fmt.Fprintf(&b, "%s\n%s\n%s\n", header, msg.Content, strings.Repeat("*", len(header)))
	} else {
		if msg.Content != "" {
			b.WriteString(msg.Content)
			b.WriteString("\n")
		}

		if fc := msg.FunctionCall; fc != nil {
			header := fmt.Sprintf("***** Suggested function Call: %s *****", fc.Name)
			fmt.Fprintf(&b, "%s\nArguments: \n%s\n%s\n", header, fc.Arguments, strings.Repeat("*", len(header)))
		}
	}

	b.WriteString("\n")
	b.WriteString(separator)
	b.WriteString("\n")

	_, _ = io.WriteString(p.w, b.String())
}

// Notice writes a highlighted status line.
func (p *Printer) Notice(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = fmt.Fprintf(p.w, "\n>>>>>>>> %s\n", text)
}
