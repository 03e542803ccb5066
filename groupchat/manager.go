package groupchat

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/internal/tracing"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/metrics"
	"github.com/hupe1980/agentchat/model"
)

const (
	// DefaultManagerName is the name of a manager created without options.
	DefaultManagerName = "chat_manager"
	// DefaultManagerSystemMessage is the system message of a manager.
	DefaultManagerSystemMessage = "Group chat manager."
	// StrategyRunChat is the reply strategy that drives a group chat run.
	StrategyRunChat = "run_chat"
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Name             string
	SystemMessage    string
	IsTerminationMsg func(msg core.Message) bool
	// Store mirrors every transcript entry under the run id when set.
	Store   core.TranscriptStore
	Output  io.Writer
	Logger  logging.Logger
	Metrics *metrics.Collector
}

// Manager is the conversable agent that moderates a GroupChat. Participants
// talk to the manager only; the manager broadcasts every message to the rest
// of the roster.
type Manager struct {
	*agent.ConversableAgent

	gc            *GroupChat
	model         model.Model
	isTermination func(core.Message) bool
	store         core.TranscriptStore
	logger        logging.Logger
	metrics       *metrics.Collector

	mu    sync.Mutex
	runID string
}

// NewManager creates a manager for gc that selects speakers with m.
func NewManager(gc *GroupChat, m model.Model, optFns ...func(o *ManagerOptions)) (*Manager, error) {
	if gc == nil {
		return nil, core.InvalidArgument("group chat is required")
	}
	if m == nil {
		return nil, core.InvalidArgument("manager needs a model for speaker selection")
	}

	opts := ManagerOptions{
		Name:             DefaultManagerName,
		SystemMessage:    DefaultManagerSystemMessage,
		IsTerminationMsg: agent.IsTerminateContent,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	conv, err := agent.NewConversableAgent(opts.Name, func(o *agent.Options) {
		o.SystemMessage = opts.SystemMessage
		o.IsTerminationMsg = opts.IsTerminationMsg
		o.HumanInputMode = agent.HumanInputNever
		o.MaxConsecutiveAutoReply = math.MaxInt
		o.Output = opts.Output
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})
	if err != nil {
		return nil, err
	}

	mgr := &Manager{
		ConversableAgent: conv,
		gc:               gc,
		model:            m,
		isTermination:    opts.IsTerminationMsg,
		store:            opts.Store,
		logger:           conv.Logger(),
		metrics:          opts.Metrics,
	}

	if err := conv.RegisterReply(StrategyRunChat, mgr.runChat); err != nil {
		return nil, err
	}

	return mgr, nil
}

// GroupChat returns the moderated group chat.
func (m *Manager) GroupChat() *GroupChat { return m.gc }

// RunID returns the id of the current or most recent run.
func (m *Manager) RunID() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.runID
}

// runChat drives the round loop for a message received from sender. It
// always decides and never produces a reply of its own.
func (m *Manager) runChat(ctx context.Context, sender core.Agent, messages []core.Message) (_ agent.ReplyResult, err error) {
	if sender == nil || len(messages) == 0 {
		return agent.Pass(), nil
	}

	runID := core.NewID()

	m.mu.Lock()
	m.runID = runID
	m.mu.Unlock()

	ctx, span := tracing.StartSpan(ctx, "groupchat.run",
		tracing.String("manager", m.Name()),
		tracing.String("run_id", runID),
		tracing.Int("max_round", m.gc.MaxRound()),
	)
	defer func() { tracing.End(span, err) }()

	m.logger.Info("groupchat.run.start", "run_id", runID, "initiator", sender.Name(), "agents", m.gc.AgentNames())

	message := messages[len(messages)-1].Clone()
	speaker := sender

	round := 0
	for ; round < m.gc.MaxRound(); round++ {
		if message.Role != core.RoleFunction {
			message.Name = speaker.Name()
		}

		if err := m.record(ctx, runID, message); err != nil {
			return agent.Pass(), err
		}

		m.metrics.RecordRound(m.Name())

		if m.isTermination(message) {
			m.logger.Info("groupchat.run.terminated", "run_id", runID, "round", round, "speaker", speaker.Name())
			break
		}

		for _, a := range m.gc.Agents() {
			if a.Name() == speaker.Name() {
				continue
			}
			if err := m.Send(ctx, a, message, core.ReplyNotRequested, true); err != nil {
				return agent.Pass(), fmt.Errorf("broadcast to %s: %w", a.Name(), err)
			}
		}

		next, reply, err := m.nextReply(ctx, speaker)
		if err != nil {
			return agent.Pass(), err
		}

		if reply == nil || reply.IsEmpty() {
			m.logger.Info("groupchat.run.no_reply", "run_id", runID, "round", round, "speaker", next.Name())
			break
		}

		speaker = next
		if err := speaker.Send(ctx, m, *reply, core.ReplyNotRequested, false); err != nil {
			return agent.Pass(), err
		}

		last, ok := m.LastMessage(speaker.Name())
		if !ok {
			break
		}
		message = last
	}

	m.logger.Info("groupchat.run.end", "run_id", runID, "rounds", round, "messages", len(m.gc.Messages()))

	return agent.Stop(), nil
}

// nextReply selects the next speaker and lets it reply. When either step
// fails the admin replies instead.
func (m *Manager) nextReply(ctx context.Context, last core.Agent) (core.Agent, *core.Message, error) {
	speaker, err := m.gc.SelectSpeaker(ctx, last, m.model)
	m.metrics.RecordSpeakerSelection(m.Name(), err)

	var reply *core.Message
	if err == nil {
		reply, err = speaker.GenerateReply(ctx, m, nil)
	}

	if err == nil {
		return speaker, reply, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, nil, ctxErr
	}

	admin, adminErr := m.gc.AgentByName(m.gc.AdminName())
	if adminErr != nil {
		return nil, nil, fmt.Errorf("%w: admin %q is not a participant: %w", core.ErrNoAdminFallback, m.gc.AdminName(), err)
	}

	m.logger.Warn("groupchat.admin_fallback", "admin", admin.Name(), "error", err)
	m.metrics.RecordAdminFallback(m.Name())

	reply, err = admin.GenerateReply(ctx, m, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("admin reply: %w", err)
	}

	return admin, reply, nil
}

func (m *Manager) record(ctx context.Context, runID string, msg core.Message) error {
	m.gc.Append(msg)

	if m.store == nil {
		return nil
	}

	if err := m.store.Append(ctx, runID, msg); err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}

	return nil
}
