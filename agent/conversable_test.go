package agent

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/internal/testutil"
	"github.com/hupe1980/agentchat/model"
)

func newTestAgent(t *testing.T, name string, optFns ...func(o *Options)) *ConversableAgent {
	t.Helper()

	base := func(o *Options) {
		o.Output = &bytes.Buffer{}
		o.HumanInput = testutil.NewScriptedInput()
	}

	a, err := NewConversableAgent(name, append([]func(o *Options){base}, optFns...)...)
	require.NoError(t, err)

	return a
}

func contents(msgs []core.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Content
	}
	return out
}

func roles(msgs []core.Message) []core.Role {
	out := make([]core.Role, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}

func TestNewConversableAgent_Defaults(t *testing.T) {
	a := newTestAgent(t, "agent")

	assert.Equal(t, "agent", a.Name())
	assert.Equal(t, DefaultSystemMessage, a.SystemMessage())
	assert.Equal(t, DefaultMaxConsecutiveAutoReply, a.MaxConsecutiveAutoReply())
	assert.Equal(t, HumanInputTerminate, a.HumanInputMode())
	assert.Nil(t, a.Model())
	assert.Equal(t, []string{StrategyTermination, StrategyFunctionCall, StrategyCodeExecution, StrategyCompletion}, a.ReplyStrategies())
}

func TestNewConversableAgent_InvalidOptions(t *testing.T) {
	tests := []struct {
		name  string
		agent string
		opt   func(o *Options)
	}{
		{"empty name", "", func(*Options) {}},
		{"unknown mode", "a", func(o *Options) { o.HumanInputMode = "SOMETIMES" }},
		{"negative budget", "a", func(o *Options) { o.MaxConsecutiveAutoReply = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConversableAgent(tt.agent, tt.opt)
			assert.ErrorIs(t, err, core.ErrInvalidArgument)
		})
	}
}

func TestInitiateChat_TwoAgentsUntilTermination(t *testing.T) {
	llm := model.NewScriptedModel("first answer", "TERMINATE")

	user := newTestAgent(t, "user", func(o *Options) {
		o.HumanInputMode = HumanInputNever
		o.DefaultAutoReply = "continue"
	})
	assistant, err := NewAssistantAgent("assistant", llm, func(o *Options) { o.Output = &bytes.Buffer{} })
	require.NoError(t, err)

	require.NoError(t, user.InitiateChat(context.Background(), assistant, "hi"))

	assert.Equal(t, []string{"hi", "first answer", "continue", "TERMINATE"}, contents(user.ChatMessages("assistant")))
	assert.Equal(t, []core.Role{core.RoleAssistant, core.RoleUser, core.RoleAssistant, core.RoleUser}, roles(user.ChatMessages("assistant")))
	assert.Equal(t, []core.Role{core.RoleUser, core.RoleAssistant, core.RoleUser, core.RoleAssistant}, roles(assistant.ChatMessages("user")))

	require.Equal(t, 2, llm.Calls())
	first := llm.Requests()[0]
	require.Len(t, first.Messages, 2)
	assert.Equal(t, core.RoleSystem, first.Messages[0].Role)
	assert.Equal(t, DefaultAssistantSystemMessage, first.Messages[0].Content)
	assert.Equal(t, "hi", first.Messages[1].Content)

	assert.Equal(t, 0, user.ConsecutiveAutoReplyCount("assistant"))
}

func TestInitiateChat_ResetsStateForPeer(t *testing.T) {
	a := newTestAgent(t, "a", func(o *Options) { o.HumanInputMode = HumanInputNever })
	b := newTestAgent(t, "b", func(o *Options) { o.HumanInputMode = HumanInputNever })

	a.ledger.Append("b", core.NewAssistantMessage("old"))
	b.ledger.Append("a", core.NewUserMessage("old"))
	a.counters["b"] = 7
	b.counters["a"] = 3

	require.NoError(t, a.InitiateChat(context.Background(), b, "fresh"))

	assert.Equal(t, []string{"fresh"}, contents(a.ChatMessages("b")))
	assert.Equal(t, []string{"fresh"}, contents(b.ChatMessages("a")))
	assert.Equal(t, 0, a.ConsecutiveAutoReplyCount("b"))
	// b fell through once and answered with the empty default auto reply
	assert.Equal(t, 1, b.ConsecutiveAutoReplyCount("a"))
}

func TestInitiateChat_KeepHistory(t *testing.T) {
	a := newTestAgent(t, "a", func(o *Options) { o.HumanInputMode = HumanInputNever })
	b := newTestAgent(t, "b", func(o *Options) { o.HumanInputMode = HumanInputNever })

	require.NoError(t, a.InitiateChat(context.Background(), b, "one"))
	require.NoError(t, a.InitiateChat(context.Background(), b, "two", func(o *ChatOptions) { o.ClearHistory = false }))

	assert.Equal(t, []string{"one", "two"}, contents(b.ChatMessages("a")))
}

func TestSend_RequiresRecipientAndContent(t *testing.T) {
	a := newTestAgent(t, "a")
	b := newTestAgent(t, "b")

	assert.ErrorIs(t, a.Send(context.Background(), nil, core.NewUserMessage("x"), core.ReplyRequested, true), core.ErrInvalidArgument)
	assert.ErrorIs(t, a.Send(context.Background(), b, core.Message{}, core.ReplyRequested, true), core.ErrInvalidArgument)
}

func TestSend_FunctionRoleIsPreserved(t *testing.T) {
	a := newTestAgent(t, "a")
	b := newTestAgent(t, "b")

	msg := core.NewFunctionMessage("lookup", "call_1", "42")
	require.NoError(t, a.Send(context.Background(), b, msg, core.ReplyNotRequested, true))

	last, ok := a.LastMessage("b")
	require.True(t, ok)
	assert.Equal(t, core.RoleFunction, last.Role)

	last, ok = b.LastMessage("a")
	require.True(t, ok)
	assert.Equal(t, core.RoleFunction, last.Role)
	assert.Equal(t, "lookup", last.Name)
}

func TestReceive_ReplyRequestModes(t *testing.T) {
	tests := []struct {
		name           string
		req            core.ReplyRequest
		replyAtReceive bool
		wantReply      bool
	}{
		{"if configured without flag", core.ReplyIfConfigured, false, false},
		{"if configured with flag", core.ReplyIfConfigured, true, true},
		{"requested", core.ReplyRequested, false, true},
		{"not requested overrides flag", core.ReplyNotRequested, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgent(t, "a", func(o *Options) { o.HumanInputMode = HumanInputNever })
			b := newTestAgent(t, "b", func(o *Options) {
				o.HumanInputMode = HumanInputNever
				o.DefaultAutoReply = "pong"
				o.MaxConsecutiveAutoReply = 0
			})
			b.SetReplyAtReceive("a", tt.replyAtReceive)

			require.NoError(t, a.Send(context.Background(), b, core.NewUserMessage("ping"), tt.req, true))

			if tt.wantReply {
				assert.Equal(t, []string{"ping", "pong"}, contents(a.ChatMessages("b")))
			} else {
				assert.Equal(t, []string{"ping"}, contents(a.ChatMessages("b")))
			}
		})
	}
}

func TestReceive_PrintsTranscriptUnlessSilent(t *testing.T) {
	var out bytes.Buffer

	a := newTestAgent(t, "a")
	b := newTestAgent(t, "b", func(o *Options) { o.Output = &out })

	require.NoError(t, a.Send(context.Background(), b, core.NewUserMessage("hello"), core.ReplyNotRequested, true))
	assert.Empty(t, out.String())

	require.NoError(t, a.Send(context.Background(), b, core.NewUserMessage("hello"), core.ReplyNotRequested, false))
	assert.Contains(t, out.String(), "a (to b):\n\nhello\n")
}

func TestGenerateReply_NilMessagesUsesLedger(t *testing.T) {
	llm := model.NewScriptedModel("from ledger")
	a := newTestAgent(t, "a", func(o *Options) {
		o.HumanInputMode = HumanInputNever
		o.Model = llm
	})
	peer := newTestAgent(t, "peer")

	a.ledger.Append("peer", core.NewUserMessage("question"))

	reply, err := a.GenerateReply(context.Background(), peer, nil)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "from ledger", reply.Content)
	assert.Equal(t, "question", llm.Requests()[0].Messages[1].Content)
}

func TestGenerateReply_RequiresSenderOrMessages(t *testing.T) {
	a := newTestAgent(t, "a")

	_, err := a.GenerateReply(context.Background(), nil, nil)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestGenerateReply_DefaultAutoReply(t *testing.T) {
	a := newTestAgent(t, "a", func(o *Options) {
		o.HumanInputMode = HumanInputNever
		o.DefaultAutoReply = "nothing to add"
	})
	peer := newTestAgent(t, "peer")

	reply, err := a.GenerateReply(context.Background(), peer, testutil.NewConversationBuilder().User("hello").Build())
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "nothing to add", reply.Content)
}

func TestRegisterReply_RunsFirst(t *testing.T) {
	a := newTestAgent(t, "a", func(o *Options) { o.HumanInputMode = HumanInputNever })
	peer := newTestAgent(t, "peer")

	require.NoError(t, a.RegisterReply("echo", func(_ context.Context, _ core.Agent, messages []core.Message) (ReplyResult, error) {
		msg := core.NewAssistantMessage("echo: " + messages[len(messages)-1].Content)
		return Final(&msg), nil
	}))

	assert.Equal(t, "echo", a.ReplyStrategies()[0])

	reply, err := a.GenerateReply(context.Background(), peer, []core.Message{core.NewUserMessage("TERMINATE")})
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, "echo: TERMINATE", reply.Content)

	assert.ErrorIs(t, a.RegisterReply("", nil), core.ErrInvalidArgument)
}

func TestGenerateReply_StrategyErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	a := newTestAgent(t, "a", func(o *Options) {
		o.HumanInputMode = HumanInputNever
		o.Model = model.NewScriptedModel().FailAt(0, boom)
	})
	peer := newTestAgent(t, "peer")

	_, err := a.GenerateReply(context.Background(), peer, []core.Message{core.NewUserMessage("hi")})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), StrategyCompletion)
}

func TestClearHistoryAndCounters(t *testing.T) {
	a := newTestAgent(t, "a")

	a.ledger.Append("x", core.NewUserMessage("1"))
	a.ledger.Append("y", core.NewUserMessage("2"))
	a.counters["x"] = 2
	a.counters["y"] = 4

	a.ClearHistory("x")
	assert.Empty(t, a.ChatMessages("x"))
	assert.Len(t, a.ChatMessages("y"), 1)

	a.ResetConsecutiveAutoReplyCounter("x")
	assert.Equal(t, 0, a.ConsecutiveAutoReplyCount("x"))
	assert.Equal(t, 4, a.ConsecutiveAutoReplyCount("y"))

	a.ClearAllHistory()
	a.ResetAllCounters()
	assert.Empty(t, a.Peers())
	assert.Equal(t, 0, a.ConsecutiveAutoReplyCount("y"))
}

func TestUpdateSettings(t *testing.T) {
	a := newTestAgent(t, "a")

	a.UpdateSystemMessage("new")
	assert.Equal(t, "new", a.SystemMessage())

	require.NoError(t, a.UpdateMaxConsecutiveAutoReply(3))
	assert.Equal(t, 3, a.MaxConsecutiveAutoReply())
	assert.ErrorIs(t, a.UpdateMaxConsecutiveAutoReply(-1), core.ErrInvalidArgument)
}

func TestInitiateChat_ContextCanceled(t *testing.T) {
	a := newTestAgent(t, "a")
	b := newTestAgent(t, "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, a.InitiateChat(ctx, b, "hi"), context.Canceled)
}
