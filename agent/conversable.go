package agent

import (
	"context"
	"os"
	"sync"

	"github.com/hupe1980/agentchat/code"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/metrics"
	"github.com/hupe1980/agentchat/model"
	"github.com/hupe1980/agentchat/tool"
)

// Conversable is an Agent whose per peer conversation state can be reset by
// the agent that starts a chat with it.
type Conversable interface {
	core.Agent
	ResetConsecutiveAutoReplyCounter(peer string)
	SetReplyAtReceive(peer string, reply bool)
	ClearHistory(peer string)
}

var _ Conversable = (*ConversableAgent)(nil)

// ConversableAgent is the generic agent. It keeps one ledger per peer, an auto
// reply counter per peer and a reply-at-receive flag per peer.
type ConversableAgent struct {
	name             string
	systemMessage    string
	isTermination    func(core.Message) bool
	maxAutoReply     int
	humanInputMode   HumanInputMode
	defaultAutoReply string

	model    model.Model
	tools    *tool.Registry
	executor *code.Executor
	input    HumanInput
	printer  *Printer
	logger   logging.Logger
	metrics  *metrics.Collector

	ledger *core.Ledger

	mu             sync.Mutex
	counters       map[string]int
	replyAtReceive map[string]bool
	replies        []ReplyStrategy
}

// NewConversableAgent creates an agent. Without optFns it has the default
// system message, a budget of ten auto replies, human input mode TERMINATE
// and no model, tools or code execution.
func NewConversableAgent(name string, optFns ...func(o *Options)) (*ConversableAgent, error) {
	if name == "" {
		return nil, core.InvalidArgument("agent name is required")
	}

	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}

	logger := logging.OrNoOp(opts.Logger)
	if cl, ok := logger.(*logging.ChatLogger); ok {
		logger = cl.WithContext("agent", name)
	}

	if opts.IsTerminationMsg == nil {
		opts.IsTerminationMsg = IsTerminateContent
	}

	input := opts.HumanInput
	if input == nil {
		input = NewConsoleInput(os.Stdin, os.Stdout)
	}

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	a := &ConversableAgent{
		name:             name,
		systemMessage:    opts.SystemMessage,
		isTermination:    opts.IsTerminationMsg,
		maxAutoReply:     opts.MaxConsecutiveAutoReply,
		humanInputMode:   opts.HumanInputMode,
		defaultAutoReply: opts.DefaultAutoReply,
		model:            opts.Model,
		input:            input,
		printer:          NewPrinter(out),
		logger:           logger,
		metrics:          opts.Metrics,
		ledger:           core.NewLedger(),
		counters:         make(map[string]int),
		replyAtReceive:   make(map[string]bool),
	}

	if len(opts.Tools) > 0 {
		a.tools = tool.NewRegistry(logger, opts.Tools...)
	}

	if opts.CodeExecution != nil {
		execOpts := append([]func(o *code.ExecutorOptions){func(o *code.ExecutorOptions) {
			o.Logger = logger
			o.Metrics = opts.Metrics
		}}, opts.CodeExecutorOptions...)
		a.executor = code.NewExecutor(*opts.CodeExecution, execOpts...)
	}

	a.replies = []ReplyStrategy{
		{Name: StrategyTermination, Generate: a.checkTerminationAndHumanReply},
		{Name: StrategyFunctionCall, Generate: a.generateFunctionCallReply},
		{Name: StrategyCodeExecution, Generate: a.generateCodeExecutionReply},
		{Name: StrategyCompletion, Generate: a.generateCompletionReply},
	}

	return a, nil
}

// Name returns the agent name.
func (a *ConversableAgent) Name() string { return a.name }

// SystemMessage returns the system message sent with completion requests.
func (a *ConversableAgent) SystemMessage() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.systemMessage
}

// UpdateSystemMessage replaces the system message.
func (a *ConversableAgent) UpdateSystemMessage(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.systemMessage = msg
}

// HumanInputMode returns the configured human input mode.
func (a *ConversableAgent) HumanInputMode() HumanInputMode { return a.humanInputMode }

// MaxConsecutiveAutoReply returns the auto reply budget per peer.
func (a *ConversableAgent) MaxConsecutiveAutoReply() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.maxAutoReply
}

// UpdateMaxConsecutiveAutoReply changes the auto reply budget per peer.
func (a *ConversableAgent) UpdateMaxConsecutiveAutoReply(n int) error {
	if n < 0 {
		return core.InvalidArgument("max consecutive auto reply must not be negative, got %d", n)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.maxAutoReply = n

	return nil
}

// Model returns the completion model or nil.
func (a *ConversableAgent) Model() model.Model { return a.model }

// Logger returns the agent logger.
func (a *ConversableAgent) Logger() logging.Logger { return a.logger }

// Send records msg (re-tagged assistant) in the ledger for recipient and
// delivers it synchronously. Any reply chain triggered by the delivery has
// completed when Send returns.
func (a *ConversableAgent) Send(ctx context.Context, recipient core.Agent, msg core.Message, req core.ReplyRequest, silent bool) error {
	if recipient == nil {
		return core.InvalidArgument("recipient is required")
	}

	if msg.IsEmpty() {
		return core.InvalidArgument("message needs content or a function call")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	a.ledger.Append(recipient.Name(), msg.WithRole(core.RoleAssistant))
	a.logger.Debug("agent.send", "to", recipient.Name(), "reply", req.String())

	return recipient.Receive(ctx, a, msg, req, silent)
}

// Receive records msg (re-tagged user) in the ledger for sender, prints it
// unless silent and, when a reply is owed, generates one and sends it back.
func (a *ConversableAgent) Receive(ctx context.Context, sender core.Agent, msg core.Message, req core.ReplyRequest, silent bool) error {
	if sender == nil {
		return core.InvalidArgument("sender is required")
	}

	in := msg.WithRole(core.RoleUser)
	a.ledger.Append(sender.Name(), in)
	a.logger.Debug("agent.receive", "from", sender.Name(), "reply", req.String())

	if !silent {
		a.printer.PrintMessage(sender.Name(), a.name, in)
	}

	if !a.replyOwed(sender.Name(), req) {
		return nil
	}

	reply, err := a.GenerateReply(ctx, sender, a.ledger.Messages(sender.Name()))
	if err != nil {
		return err
	}

	if reply == nil || reply.IsEmpty() {
		a.logger.Debug("agent.reply.none", "to", sender.Name())
		return nil
	}

	return a.Send(ctx, sender, *reply, req, silent)
}

func (a *ConversableAgent) replyOwed(peer string, req core.ReplyRequest) bool {
	switch req {
	case core.ReplyRequested:
		return true
	case core.ReplyNotRequested:
		return false
	default:
		a.mu.Lock()
		defer a.mu.Unlock()

		return a.replyAtReceive[peer]
	}
}

// InitiateChat resets the counters of both agents for each other, enables
// replies on both sides, optionally clears their shared history and sends
// message to recipient. It returns when the conversation has ended.
func (a *ConversableAgent) InitiateChat(ctx context.Context, recipient Conversable, message string, optFns ...func(o *ChatOptions)) error {
	if recipient == nil {
		return core.InvalidArgument("recipient is required")
	}

	opts := ChatOptions{ClearHistory: true}
	for _, fn := range optFns {
		fn(&opts)
	}

	a.prepareChat(recipient, opts.ClearHistory)
	a.logger.Info("agent.chat.start", "recipient", recipient.Name(), "options", opts.String())

	err := a.Send(ctx, recipient, core.NewUserMessage(message), core.ReplyIfConfigured, opts.Silent)
	if err != nil {
		a.logger.Error("agent.chat.failed", "recipient", recipient.Name(), "error", err)
		return err
	}

	a.logger.Info("agent.chat.end", "recipient", recipient.Name(), "messages", a.ledger.Len(recipient.Name()))

	return nil
}

func (a *ConversableAgent) prepareChat(recipient Conversable, clearHistory bool) {
	a.ResetConsecutiveAutoReplyCounter(recipient.Name())
	recipient.ResetConsecutiveAutoReplyCounter(a.name)
	a.SetReplyAtReceive(recipient.Name(), true)
	recipient.SetReplyAtReceive(a.name, true)

	if clearHistory {
		a.ClearHistory(recipient.Name())
		recipient.ClearHistory(a.name)
	}
}

// SetReplyAtReceive controls whether messages from peer are answered when
// the sender leaves the decision to the recipient.
func (a *ConversableAgent) SetReplyAtReceive(peer string, reply bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.replyAtReceive[peer] = reply
}

// ChatMessages returns a copy of the ledger for peer.
func (a *ConversableAgent) ChatMessages(peer string) []core.Message {
	return a.ledger.Messages(peer)
}

// LastMessage returns the most recent ledger entry for peer.
func (a *ConversableAgent) LastMessage(peer string) (core.Message, bool) {
	return a.ledger.Last(peer)
}

// Peers returns the names of every peer with a ledger.
func (a *ConversableAgent) Peers() []string { return a.ledger.Peers() }

// ClearHistory drops the ledger for peer.
func (a *ConversableAgent) ClearHistory(peer string) { a.ledger.Clear(peer) }

// ClearAllHistory drops every ledger.
func (a *ConversableAgent) ClearAllHistory() { a.ledger.ClearAll() }

// ResetConsecutiveAutoReplyCounter sets the auto reply counter for peer to zero.
func (a *ConversableAgent) ResetConsecutiveAutoReplyCounter(peer string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.counters, peer)
}

// ResetAllCounters sets every auto reply counter to zero.
func (a *ConversableAgent) ResetAllCounters() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.counters = make(map[string]int)
}

// ConsecutiveAutoReplyCount returns the auto reply counter for peer.
func (a *ConversableAgent) ConsecutiveAutoReplyCount(peer string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.counters[peer]
}

func (a *ConversableAgent) incrementCounter(peer string) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.counters[peer]++

	return a.counters[peer]
}
