package agent

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/core"
)

func TestPrinter_PrintMessage(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	p.PrintMessage("alice", "bob", core.NewUserMessage("hello"))

	assert.Equal(t, "alice (to bob):\n\nhello\n\n"+strings.Repeat("-", 80)+"\n", out.String())
}

func TestPrinter_FunctionMessages(t *testing.T) {
	var out bytes.Buffer
	p := NewPrinter(&out)

	p.PrintMessage("a", "b", core.Message{Role: core.RoleAssistant, FunctionCall: &core.FunctionCall{Name: "sum", Arguments: `{"a":1}`}})
	p.PrintMessage("b", "a", core.NewFunctionMessage("sum", "c1", "1"))

	assert.Contains(t, out.String(), "***** Suggested function Call: sum *****\nArguments: \n{\"a\":1}\n")
	assert.Contains(t, out.String(), "***** Response from calling function \"sum\" *****\n1\n")
}

func TestPrinter_NilWriter(t *testing.T) {
	assert.NotPanics(t, func() {
		NewPrinter(nil).Notice("quiet")
	})
}

func TestConsoleInput(t *testing.T) {
	var out bytes.Buffer
	in := NewConsoleInput(strings.NewReader("first\r\n\nlast"), &out)

	for _, want := range []string{"first", "", "last", ""} {
		got, err := in.GetHumanInput(context.Background(), "> ")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.Equal(t, strings.Repeat("> ", 4), out.String())
}

func TestConsoleInput_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewConsoleInput(strings.NewReader("x\n"), &bytes.Buffer{}).GetHumanInput(ctx, "> ")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHumanInputFunc(t *testing.T) {
	var seen string
	f := HumanInputFunc(func(_ context.Context, prompt string) (string, error) {
		seen = prompt
		return "ok", nil
	})

	got, err := f.GetHumanInput(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, "prompt", seen)
}
