package core

// Role identifies who authored a message from the perspective of the ledger owner.
type Role string

const (
	// RoleSystem marks instructions prepended to completion requests.
	RoleSystem Role = "system"
	// RoleUser marks messages received from a peer.
	RoleUser Role = "user"
	// RoleAssistant marks messages the ledger owner sent itself.
	RoleAssistant Role = "assistant"
	// RoleFunction marks function results. Function messages keep their role
	// across send and receive.
	RoleFunction Role = "function"
)

// FunctionCall is a structured request to invoke a named function with JSON
// encoded arguments.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is a single conversational record. Messages are values; every
// ledger append stores its own copy.
//
// An empty Content represents a message without text (for example a pure
// function call).
type Message struct {
	Role         Role          `json:"role"`
	Content      string        `json:"content,omitempty"`
	Name         string        `json:"name,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
	ToolCallID   string        `json:"tool_call_id,omitempty"`
}

// NewMessage creates a message with the given role and text.
func NewMessage(role Role, content string) Message {
	return Message{Role: role, Content: content}
}

// NewUserMessage creates a user role message.
func NewUserMessage(content string) Message { return NewMessage(RoleUser, content) }

// NewAssistantMessage creates an assistant role message.
func NewAssistantMessage(content string) Message { return NewMessage(RoleAssistant, content) }

// NewSystemMessage creates a system role message.
func NewSystemMessage(content string) Message { return NewMessage(RoleSystem, content) }

// NewFunctionMessage creates the result message for a function call.
func NewFunctionMessage(name, callID, content string) Message {
	return Message{Role: RoleFunction, Name: name, ToolCallID: callID, Content: content}
}

// Clone returns a deep copy of the message.
func (m Message) Clone() Message {
	if m.FunctionCall != nil {
		fc := *m.FunctionCall
		m.FunctionCall = &fc
	}
	return m
}

// WithRole returns a copy re-tagged with role. Function messages are returned
// unchanged apart from the copy.
func (m Message) WithRole(role Role) Message {
	c := m.Clone()
	if c.Role != RoleFunction {
		c.Role = role
	}
	return c
}

// IsEmpty reports whether the message carries neither text nor a function
// call. Function results are never empty.
func (m Message) IsEmpty() bool {
	return m.Role != RoleFunction && m.Content == "" && m.FunctionCall == nil
}

// CloneMessages copies a slice of messages.
func CloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return nil
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m.Clone()
	}
	return out
}
