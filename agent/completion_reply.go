package agent

import (
	"context"
	"errors"
	"time"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/internal/tracing"
	"github.com/hupe1980/agentchat/model"
)

// generateCompletionReply asks the model for the next message. The system
// message is prepended to the conversation and registered tools are offered
// as function definitions.
func (a *ConversableAgent) generateCompletionReply(ctx context.Context, _ core.Agent, messages []core.Message) (_ ReplyResult, err error) {
	if a.model == nil {
		return Pass(), nil
	}

	req := model.Request{
		Messages: append([]core.Message{core.NewSystemMessage(a.SystemMessage())}, messages...),
	}
	if a.tools != nil {
		req.Tools = a.tools.Definitions()
	}

	ctx, span := tracing.StartSpan(ctx, "agent.completion",
		tracing.String("agent", a.name),
		tracing.String("model", a.model.Info().Name),
		tracing.Int("messages", len(req.Messages)),
	)
	start := time.Now()

	defer func() {
		a.metrics.RecordCompletion(a.name, time.Since(start), err)
		tracing.End(span, err)
	}()

	resp, err := model.Complete(ctx, a.model, req)
	if err != nil {
		a.logger.Error("agent.completion.failed", "error", err)
		return Pass(), err
	}

	msg, ok := resp.First()
	if !ok {
		return Pass(), errors.New("completion returned no choices")
	}

	msg.Role = core.RoleAssistant
	msg.Name = ""

	if resp.Usage != nil {
		a.logger.Debug("agent.completion.usage", "prompt_tokens", resp.Usage.PromptTokens, "completion_tokens", resp.Usage.CompletionTokens)
	}

	return Final(&msg), nil
}
