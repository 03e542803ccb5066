package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentchat/core"
)

// Names of the built-in reply strategies.
const (
	StrategyTermination   = "check_termination_and_human_reply"
	StrategyFunctionCall  = "function_call"
	StrategyCodeExecution = "code_execution"
	StrategyCompletion    = "completion"
	strategyDefault       = "default_auto_reply"
)

// ReplyResult is the outcome of a reply strategy. A result that is not Final
// passes control to the next strategy. A Final result with a nil Message ends
// the conversation.
type ReplyResult struct {
	Final   bool
	Message *core.Message
}

// Final returns a deciding result carrying msg.
func Final(msg *core.Message) ReplyResult {
	return ReplyResult{Final: true, Message: msg}
}

// Stop returns a deciding result without a reply.
func Stop() ReplyResult { return ReplyResult{Final: true} }

// Pass returns a result that defers to the next strategy.
func Pass() ReplyResult { return ReplyResult{} }

// ReplyFunc computes a reply for sender from messages.
type ReplyFunc func(ctx context.Context, sender core.Agent, messages []core.Message) (ReplyResult, error)

// ReplyStrategy is a named entry of the reply pipeline.
type ReplyStrategy struct {
	Name     string
	Generate ReplyFunc
}

// RegisterReply puts fn in front of the pipeline so it runs before every
// strategy registered earlier.
func (a *ConversableAgent) RegisterReply(name string, fn ReplyFunc) error {
	if name == "" || fn == nil {
		return core.InvalidArgument("reply strategy needs a name and a function")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.replies = append([]ReplyStrategy{{Name: name, Generate: fn}}, a.replies...)

	return nil
}

// ReplyStrategies returns the pipeline strategy names in evaluation order.
func (a *ConversableAgent) ReplyStrategies() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	names := make([]string, len(a.replies))
	for i, r := range a.replies {
		names[i] = r.Name
	}

	return names
}

// GenerateReply runs the reply pipeline. With nil messages the ledger for
// sender is used. The first deciding strategy wins; when none decides the
// default auto reply is returned. A nil reply means the conversation ends.
func (a *ConversableAgent) GenerateReply(ctx context.Context, sender core.Agent, messages []core.Message) (*core.Message, error) {
	if messages == nil {
		if sender == nil {
			return nil, core.InvalidArgument("either messages or a sender is required")
		}
		messages = a.ledger.Messages(sender.Name())
	}

	a.mu.Lock()
	replies := append([]ReplyStrategy(nil), a.replies...)
	a.mu.Unlock()

	for _, r := range replies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := r.Generate(ctx, sender, messages)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Name, err)
		}

		if res.Final {
			a.metrics.RecordReply(a.name, r.Name)
			a.logger.Debug("agent.reply", "strategy", r.Name, "stop", res.Message == nil)
			return res.Message, nil
		}
	}

	a.metrics.RecordReply(a.name, strategyDefault)

	reply := core.NewAssistantMessage(a.defaultAutoReply)

	return &reply, nil
}

func lastMessage(messages []core.Message) (core.Message, bool) {
	if len(messages) == 0 {
		return core.Message{}, false
	}
	return messages[len(messages)-1], true
}
