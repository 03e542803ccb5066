package agent

import (
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/agentchat/code"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/metrics"
	"github.com/hupe1980/agentchat/model"
	"github.com/hupe1980/agentchat/tool"
)

// HumanInputMode controls when an agent asks a human for input.
type HumanInputMode string

const (
	// HumanInputAlways prompts on every reply.
	HumanInputAlways HumanInputMode = "ALWAYS"
	// HumanInputTerminate prompts only on a termination message or when the
	// auto reply budget is exhausted.
	HumanInputTerminate HumanInputMode = "TERMINATE"
	// HumanInputNever never prompts; the conversation stops where
	// TERMINATE would prompt.
	HumanInputNever HumanInputMode = "NEVER"
)

// ParseHumanInputMode parses a case insensitive mode name.
func ParseHumanInputMode(s string) (HumanInputMode, error) {
	switch m := HumanInputMode(strings.ToUpper(strings.TrimSpace(s))); m {
	case HumanInputAlways, HumanInputTerminate, HumanInputNever:
		return m, nil
	default:
		return "", core.InvalidArgument("unknown human input mode %q", s)
	}
}

const (
	// DefaultSystemMessage is used by NewConversableAgent.
	DefaultSystemMessage = "You are a helpful AI Assistant."
	// DefaultMaxConsecutiveAutoReply bounds automatic replies per peer.
	DefaultMaxConsecutiveAutoReply = 10
	// TerminateKeyword is the content that ends a conversation by default.
	TerminateKeyword = "TERMINATE"
)

// Options configures a ConversableAgent.
type Options struct {
	SystemMessage string
	// IsTerminationMsg reports whether a received message ends the conversation.
	IsTerminationMsg func(msg core.Message) bool
	// MaxConsecutiveAutoReply is the number of automatic replies allowed per
	// peer before the termination step intervenes.
	MaxConsecutiveAutoReply int
	HumanInputMode          HumanInputMode
	// Model enables the completion reply. Nil disables it.
	Model model.Model
	// Tools enables the function call reply.
	Tools []tool.Tool
	// CodeExecution enables the code execution reply. Nil disables it.
	CodeExecution *code.Config
	// CodeExecutorOptions are passed to the code executor.
	CodeExecutorOptions []func(o *code.ExecutorOptions)
	// DefaultAutoReply is returned when no reply strategy decides.
	DefaultAutoReply string
	// HumanInput supplies human replies; defaults to the console.
	HumanInput HumanInput
	// Output receives the printed transcript; defaults to stdout.
	Output  io.Writer
	Logger  logging.Logger
	Metrics *metrics.Collector
}

func defaultOptions() Options {
	return Options{
		SystemMessage:           DefaultSystemMessage,
		IsTerminationMsg:        IsTerminateContent,
		MaxConsecutiveAutoReply: DefaultMaxConsecutiveAutoReply,
		HumanInputMode:          HumanInputTerminate,
	}
}

func (o Options) validate() error {
	switch o.HumanInputMode {
	case HumanInputAlways, HumanInputTerminate, HumanInputNever:
	default:
		return core.InvalidArgument("unknown human input mode %q", o.HumanInputMode)
	}
	if o.MaxConsecutiveAutoReply < 0 {
		return core.InvalidArgument("max consecutive auto reply must not be negative, got %d", o.MaxConsecutiveAutoReply)
	}
	if o.CodeExecution != nil && o.CodeExecution.LastMessages < code.LastMessagesAuto {
		return core.InvalidArgument("last messages must be >= %d, got %d", code.LastMessagesAuto, o.CodeExecution.LastMessages)
	}
	return nil
}

// IsTerminateContent is the default termination predicate: the content is exactly "TERMINATE".
func IsTerminateContent(msg core.Message) bool {
	return msg.Content == TerminateKeyword
}

// TerminateOnSuffix returns a predicate matching messages whose trimmed
// content ends with suffix.
func TerminateOnSuffix(suffix string) func(core.Message) bool {
	return func(msg core.Message) bool {
		return strings.HasSuffix(strings.TrimSpace(msg.Content), suffix)
	}
}

// ChatOptions configures InitiateChat.
type ChatOptions struct {
	// ClearHistory drops the existing history between the two agents.
	ClearHistory bool
	// Silent suppresses the printed transcript.
	Silent bool
}

func (o ChatOptions) String() string {
	return fmt.Sprintf("clear_history=%t silent=%t", o.ClearHistory, o.Silent)
}
