package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentchat/code"
	"github.com/hupe1980/agentchat/core"
)

// MessagesToScan returns how many trailing messages the code execution reply
// inspects. A positive lastMessages is capped by the history length. With
// code.LastMessagesAuto the window reaches back to and includes the most
// recent user message.
func MessagesToScan(messages []core.Message, lastMessages int) int {
	if lastMessages != code.LastMessagesAuto {
		return max(0, min(lastMessages, len(messages)))
	}

	n := 0
	for i := len(messages) - 1; i >= 0; i-- {
		n++
		if messages[i].Role == core.RoleUser {
			break
		}
	}

	return n
}

// generateCodeExecutionReply runs the code blocks of the newest message in
// the scan window that contains any.
func (a *ConversableAgent) generateCodeExecutionReply(ctx context.Context, _ core.Agent, messages []core.Message) (ReplyResult, error) {
	if a.executor == nil {
		return Pass(), nil
	}

	n := MessagesToScan(messages, a.executor.Config().LastMessages)

	for i := 0; i < n; i++ {
		msg := messages[len(messages)-1-i]
		if msg.Content == "" {
			continue
		}

		blocks := code.ExtractCode(msg.Content, false)
		if len(blocks) == 0 {
			continue
		}

		res, err := a.executor.ExecuteBlocks(ctx, blocks)
		if err != nil {
			return Pass(), err
		}

		reply := core.NewUserMessage(FormatExecutionResult(res))

		return Final(&reply), nil
	}

	return Pass(), nil
}

// FormatExecutionResult renders an execution result as reply content.
func FormatExecutionResult(res *code.Result) string {
	status := "execution succeeded"
	if !res.Succeeded() {
		status = "execution failed"
	}

	return fmt.Sprintf("exitcode: %d (%s)\nCode output: %s", res.ExitCode, status, res.Logs)
}
