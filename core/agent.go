package core

import "context"

// ReplyRequest tells the recipient of a message whether it owes a reply.
type ReplyRequest int

const (
	// ReplyIfConfigured defers to the recipient's reply-at-receive flag for the sender.
	ReplyIfConfigured ReplyRequest = iota
	// ReplyRequested always asks the recipient to reply.
	ReplyRequested
	// ReplyNotRequested never asks for a reply, regardless of reply-at-receive flags.
	ReplyNotRequested
)

// String returns a readable name for the request mode.
func (r ReplyRequest) String() string {
	switch r {
	case ReplyRequested:
		return "requested"
	case ReplyNotRequested:
		return "not_requested"
	default:
		return "if_configured"
	}
}

// Agent is a named participant in a conversation. Agents are identified by
// name; two agents with the same name are the same peer.
//
// Implementations must:
//   - record every sent and received message in a per peer ledger
//   - deliver Send synchronously by calling the recipient's Receive
//   - reply to the sender from within Receive when a reply is owed
type Agent interface {
	Name() string
	SystemMessage() string
	Send(ctx context.Context, recipient Agent, msg Message, req ReplyRequest, silent bool) error
	Receive(ctx context.Context, sender Agent, msg Message, req ReplyRequest, silent bool) error
	// GenerateReply produces the next reply for sender. A nil messages slice
	// means "use the history recorded for sender". A nil reply means the
	// conversation ends.
	GenerateReply(ctx context.Context, sender Agent, messages []Message) (*Message, error)
}
