package agent

import (
	"context"

	"github.com/hupe1980/agentchat/core"
)

// generateFunctionCallReply executes the function call proposed by the last
// message. Agents without tools leave the decision to later strategies.
func (a *ConversableAgent) generateFunctionCallReply(ctx context.Context, _ core.Agent, messages []core.Message) (ReplyResult, error) {
	if a.tools == nil || a.tools.Len() == 0 {
		return Pass(), nil
	}

	last, ok := lastMessage(messages)
	if !ok || last.FunctionCall == nil {
		return Pass(), nil
	}

	result := a.tools.Call(ctx, *last.FunctionCall)

	return Final(&result), nil
}
