package testutil

import (
	"github.com/hupe1980/agentchat/core"
)

// ConversationBuilder helps construct message histories with fluent chaining.
// Example:
//
//	msgs := NewConversationBuilder().User("hi").Assistant("```python\nprint(1)\n```").Build()
type ConversationBuilder struct {
	msgs []core.Message
}

// NewConversationBuilder creates an empty builder.
func NewConversationBuilder() *ConversationBuilder {
	return &ConversationBuilder{}
}

// User appends a user message (chainable).
func (b *ConversationBuilder) User(content string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.NewUserMessage(content))
	return b
}

// Assistant appends an assistant message (chainable).
func (b *ConversationBuilder) Assistant(content string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.NewAssistantMessage(content))
	return b
}

// Named appends a user message attributed to a named speaker (chainable).
func (b *ConversationBuilder) Named(name, content string) *ConversationBuilder {
	msg := core.NewUserMessage(content)
	msg.Name = name
	b.msgs = append(b.msgs, msg)
	return b
}

// FunctionCall appends an assistant message proposing a call (chainable).
func (b *ConversationBuilder) FunctionCall(name, args string) *ConversationBuilder {
	b.msgs = append(b.msgs, core.Message{
		Role:         core.RoleAssistant,
		FunctionCall: &core.FunctionCall{ID: "call_" + name, Name: name, Arguments: args},
	})
	return b
}

// Message appends an arbitrary message (chainable).
func (b *ConversationBuilder) Message(msg core.Message) *ConversationBuilder {
	b.msgs = append(b.msgs, msg)
	return b
}

// Build returns a copy of the accumulated messages.
func (b *ConversationBuilder) Build() []core.Message {
	return core.CloneMessages(b.msgs)
}
