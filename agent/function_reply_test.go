package agent

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/internal/testutil"
	"github.com/hupe1980/agentchat/model"
	"github.com/hupe1980/agentchat/tool"
)

func sumTool() tool.Tool {
	return tool.NewFunctionTool(
		"sum",
		"Add two numbers",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
				"b": map[string]any{"type": "number"},
			},
			"required": []string{"a", "b"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			return args["a"].(float64) + args["b"].(float64), nil
		},
	)
}

func TestFunctionCallReply(t *testing.T) {
	a := newTestAgent(t, "a", func(o *Options) {
		o.HumanInputMode = HumanInputNever
		o.Tools = []tool.Tool{sumTool()}
	})

	t.Run("executes call", func(t *testing.T) {
		res, err := a.generateFunctionCallReply(context.Background(), nil, testutil.NewConversationBuilder().FunctionCall("sum", `{"a":1,"b":2}`).Build())
		require.NoError(t, err)
		require.True(t, res.Final)
		require.NotNil(t, res.Message)
		assert.Equal(t, core.RoleFunction, res.Message.Role)
		assert.Equal(t, "sum", res.Message.Name)
		assert.Equal(t, "call_sum", res.Message.ToolCallID)
		assert.Equal(t, "3", res.Message.Content)
	})

	t.Run("unknown function", func(t *testing.T) {
		res, err := a.generateFunctionCallReply(context.Background(), nil, testutil.NewConversationBuilder().FunctionCall("nope", `{}`).Build())
		require.NoError(t, err)
		require.True(t, res.Final)
		assert.Equal(t, "Error: Function nope not found.", res.Message.Content)
	})

	t.Run("no call passes", func(t *testing.T) {
		res, err := a.generateFunctionCallReply(context.Background(), nil, testutil.NewConversationBuilder().User("hi").Build())
		require.NoError(t, err)
		assert.False(t, res.Final)
	})
}

func TestFunctionCall_RoundTrip(t *testing.T) {
	llm := model.NewScriptedModel().
		AddMessage(core.Message{Role: core.RoleAssistant, FunctionCall: &core.FunctionCall{ID: "c1", Name: "sum", Arguments: `{"a":20,"b":22}`}}).
		AddMessage(core.NewAssistantMessage("The answer is 42. TERMINATE"))

	assistant, err := NewAssistantAgent("assistant", llm, func(o *Options) {
		o.Tools = []tool.Tool{sumTool()}
		o.Output = io.Discard
		o.IsTerminationMsg = TerminateOnSuffix("TERMINATE")
	})
	require.NoError(t, err)

	executor := newTestAgent(t, "executor", func(o *Options) {
		o.HumanInputMode = HumanInputNever
		o.Tools = []tool.Tool{sumTool()}
		o.IsTerminationMsg = TerminateOnSuffix("TERMINATE")
	})

	require.NoError(t, executor.InitiateChat(context.Background(), assistant, "what is 20+22?"))

	msgs := executor.ChatMessages("assistant")
	require.Len(t, msgs, 4)
	assert.Equal(t, "sum", msgs[1].FunctionCall.Name)
	assert.Equal(t, core.RoleFunction, msgs[2].Role)
	assert.Equal(t, "42", msgs[2].Content)
	assert.Equal(t, "The answer is 42. TERMINATE", msgs[3].Content)

	require.Equal(t, 2, llm.Calls())
	assert.Len(t, llm.Requests()[0].Tools, 1)
}

func TestFunctionCall_EmptyResultIsSentBack(t *testing.T) {
	logEvent := tool.NewFunctionTool(
		"log_event",
		"Record an event",
		map[string]any{"type": "object", "properties": map[string]any{}},
		func(context.Context, map[string]any) (any, error) { return nil, nil },
	)

	llm := model.NewScriptedModel().
		AddMessage(core.Message{Role: core.RoleAssistant, FunctionCall: &core.FunctionCall{ID: "c1", Name: "log_event", Arguments: `{}`}}).
		AddMessage(core.NewAssistantMessage("Logged. TERMINATE"))

	assistant, err := NewAssistantAgent("assistant", llm, func(o *Options) {
		o.Tools = []tool.Tool{logEvent}
		o.Output = io.Discard
		o.IsTerminationMsg = TerminateOnSuffix("TERMINATE")
	})
	require.NoError(t, err)

	executor := newTestAgent(t, "executor", func(o *Options) {
		o.HumanInputMode = HumanInputNever
		o.Tools = []tool.Tool{logEvent}
		o.IsTerminationMsg = TerminateOnSuffix("TERMINATE")
	})

	require.NoError(t, executor.InitiateChat(context.Background(), assistant, "log it"))

	msgs := executor.ChatMessages("assistant")
	require.Len(t, msgs, 4)
	assert.Equal(t, core.RoleFunction, msgs[2].Role)
	assert.Equal(t, "log_event", msgs[2].Name)
	assert.Empty(t, msgs[2].Content)
	assert.Equal(t, "Logged. TERMINATE", msgs[3].Content)

	assert.Equal(t, 2, llm.Calls())
}
