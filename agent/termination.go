package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentchat/core"
)

const (
	exitCommand = "exit"

	promptAlways         = "Provide feedback to %s. Press enter to skip and use auto-reply, or type 'exit' to end the conversation: "
	promptTerminate      = "Please give feedback to %s. Press enter or type 'exit' to stop the conversation: "
	promptBudgetExceeded = "Please give feedback to %s. Press enter to skip and use auto-reply, or type 'exit' to stop the conversation: "

	noticeNoHumanInput = "NO HUMAN INPUT RECEIVED."
	noticeAutoReply    = "USING AUTO REPLY..."
)

// checkTerminationAndHumanReply decides whether the conversation with sender
// stops, continues with a human reply or falls through to automatic replies.
func (a *ConversableAgent) checkTerminationAndHumanReply(ctx context.Context, sender core.Agent, messages []core.Message) (ReplyResult, error) {
	if sender == nil {
		return Pass(), nil
	}

	peer := sender.Name()
	last, _ := lastMessage(messages)

	var (
		reply    string
		prompted bool
		noInput  bool
		err      error
	)

	switch a.humanInputMode {
	case HumanInputAlways:
		reply, err = a.askHuman(ctx, fmt.Sprintf(promptAlways, peer))
		if err != nil {
			return Pass(), err
		}
		prompted, noInput = true, reply == ""

		if reply == "" && a.isTermination(last) {
			reply = exitCommand
		}
	default:
		switch {
		case a.ConsecutiveAutoReplyCount(peer) > a.MaxConsecutiveAutoReply():
			if a.humanInputMode == HumanInputNever {
				reply = exitCommand
				break
			}

			terminate := a.isTermination(last)

			prompt := promptBudgetExceeded
			if terminate {
				prompt = promptTerminate
			}

			reply, err = a.askHuman(ctx, fmt.Sprintf(prompt, peer))
			if err != nil {
				return Pass(), err
			}
			prompted, noInput = true, reply == ""

			if reply == "" && terminate {
				reply = exitCommand
			}
		case a.isTermination(last):
			if a.humanInputMode == HumanInputNever {
				reply = exitCommand
				break
			}

			reply, err = a.askHuman(ctx, fmt.Sprintf(promptTerminate, peer))
			if err != nil {
				return Pass(), err
			}
			prompted, noInput = true, reply == ""

			if reply == "" {
				reply = exitCommand
			}
		}
	}

	if prompted {
		a.metrics.RecordHumanInput(a.name, !noInput)
		if noInput {
			a.printer.Notice(noticeNoHumanInput)
		}
	}

	if reply == exitCommand {
		a.ResetConsecutiveAutoReplyCounter(peer)
		a.logger.Info("agent.conversation.stop", "peer", peer, "mode", string(a.humanInputMode))
		return Stop(), nil
	}

	if reply != "" {
		a.ResetConsecutiveAutoReplyCounter(peer)
		msg := core.NewUserMessage(reply)
		return Final(&msg), nil
	}

	count := a.incrementCounter(peer)
	if a.humanInputMode != HumanInputNever {
		a.printer.Notice(noticeAutoReply)
	}

	a.logger.Debug("agent.auto_reply", "peer", peer, "count", count)

	return Pass(), nil
}

func (a *ConversableAgent) askHuman(ctx context.Context, prompt string) (string, error) {
	reply, err := a.input.GetHumanInput(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("human input: %w", err)
	}
	return reply, nil
}
