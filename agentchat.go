// Package agentchat assembles a team of conversable agents from a
// config.Config. Most applications interact with this package by:
//  1. Loading a configuration (config.NewLoader().WithConfigPath(...).Load())
//  2. Calling Build, optionally overriding the model, tools or human input
//  3. Starting a conversation with Team.Run
//
// When the configuration declares a group chat, Run starts the conversation
// with the group chat manager; otherwise the initiator talks to the first
// other configured agent.
package agentchat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/config"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/groupchat"
	"github.com/hupe1980/agentchat/internal/tracing"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/metrics"
	"github.com/hupe1980/agentchat/model"
	"github.com/hupe1980/agentchat/model/anthropic"
	"github.com/hupe1980/agentchat/model/openai"
	"github.com/hupe1980/agentchat/tool"
	"github.com/hupe1980/agentchat/transcript"
	"github.com/hupe1980/agentchat/transcript/redisstore"
)

// Options overrides parts of what Build derives from the configuration.
type Options struct {
	// Model replaces the provider built from config.ModelConfig.
	Model model.Model
	// Tools are registered on the agent with the matching name.
	Tools map[string][]tool.Tool
	// HumanInput is shared by all agents; defaults to the console.
	HumanInput agent.HumanInput
	// Output receives the printed transcript; defaults to stdout.
	Output io.Writer
	// Logger replaces the logger built from config.LogConfig.
	Logger logging.Logger
	// Registerer receives the metrics when enabled; defaults to the global registerer.
	Registerer prometheus.Registerer
	// Store replaces the transcript backend built from config.TranscriptConfig.
	Store core.TranscriptStore
}

// Team is a set of agents built from one configuration.
type Team struct {
	cfg      *config.Config
	model    model.Model
	agents   map[string]*agent.ConversableAgent
	order    []string
	manager  *groupchat.Manager
	store    core.TranscriptStore
	metrics  *metrics.Collector
	logger   logging.Logger
	shutdown []func(context.Context) error
}

// Build creates the model, agents and optional group chat declared by cfg.
// A nil cfg uses config.DefaultConfig.
func Build(cfg *config.Config, optFns ...func(o *Options)) (*Team, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	t := &Team{cfg: cfg, agents: make(map[string]*agent.ConversableAgent)}

	logger, err := newLogger(cfg.Log, opts.Logger)
	if err != nil {
		return nil, err
	}
	t.logger = logger

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.Setup(true, cfg.Tracing.Exporter)
		if err != nil {
			return nil, fmt.Errorf("setup tracing: %w", err)
		}
		t.shutdown = append(t.shutdown, shutdown)
	}

	if cfg.Metrics.Enabled {
		t.metrics = metrics.NewCollector(cfg.Metrics.Namespace, opts.Registerer)
	}

	t.model = opts.Model
	if t.model == nil {
		t.model = newModel(cfg.Model, logger)
	}

	t.store = opts.Store
	if t.store == nil {
		t.store = newStore(cfg)
	}
	if closer, ok := t.store.(interface{ Close() error }); ok {
		t.shutdown = append(t.shutdown, func(context.Context) error { return closer.Close() })
	}

	for _, ac := range cfg.Agents {
		a, err := t.newAgent(ac, opts)
		if err != nil {
			return nil, fmt.Errorf("build agent %q: %w", ac.Name, err)
		}
		t.agents[ac.Name] = a
		t.order = append(t.order, ac.Name)
	}

	if cfg.GroupChat.Enabled() {
		if err := t.buildGroupChat(opts); err != nil {
			return nil, err
		}
	}

	logger.Info("team.built", "agents", t.order, "group_chat", t.manager != nil, "provider", t.model.Info().Provider)

	return t, nil
}

func newLogger(cfg config.LogConfig, override logging.Logger) (logging.Logger, error) {
	if override != nil {
		return override, nil
	}

	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	if cfg.Backend == "zap" {
		return logging.NewZapLogger(level, cfg.Format)
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Format,
		Output:    os.Stderr,
		AddSource: cfg.AddSource,
	}), nil
}

func newModel(cfg config.ModelConfig, logger logging.Logger) model.Model {
	var m model.Model

	switch cfg.Provider {
	case config.ProviderAnthropic:
		m = anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.MaxTokens)
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		})
	case config.ProviderMock:
		m = model.NewMockModel(cfg.Name, config.ProviderMock)
	default:
		m = openai.NewModel(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = int64(cfg.MaxTokens)
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		})
	}

	if cfg.RateLimit > 0 {
		m = model.WithRateLimit(m, cfg.RateLimit, cfg.Burst)
	}

	if cfg.CircuitBreaker.Enabled {
		m = model.WithCircuitBreaker(m, func(o *model.BreakerOptions) {
			o.MaxFailures = cfg.CircuitBreaker.MaxFailures
			o.Timeout = cfg.CircuitBreaker.Timeout
			o.Logger = logger
		})
	}

	return m
}

func newStore(cfg *config.Config) core.TranscriptStore {
	switch cfg.Transcript.Backend {
	case "memory":
		return transcript.NewInMemoryStore()
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		return redisstore.New(client, func(o *redisstore.Options) {
			o.KeyPrefix = cfg.Transcript.KeyPrefix
			o.TTL = cfg.Transcript.TTL
		})
	default:
		return nil
	}
}

func (t *Team) newAgent(ac config.AgentConfig, opts Options) (*agent.ConversableAgent, error) {
	codeCfg := t.cfg.CodeExecution.ToCode()

	configure := func(o *agent.Options) {
		o.Logger = t.logger
		o.Metrics = t.metrics
		o.Output = opts.Output
		o.Tools = opts.Tools[ac.Name]
		o.DefaultAutoReply = ac.DefaultAutoReply

		if opts.HumanInput != nil {
			o.HumanInput = opts.HumanInput
		}
		if ac.SystemMessage != "" {
			o.SystemMessage = ac.SystemMessage
		}
		if ac.HumanInputMode != "" {
			o.HumanInputMode, _ = agent.ParseHumanInputMode(ac.HumanInputMode)
		}
		if ac.MaxConsecutiveAutoReply != nil {
			o.MaxConsecutiveAutoReply = *ac.MaxConsecutiveAutoReply
		}
		if ac.TerminationSuffix != "" {
			o.IsTerminationMsg = agent.TerminateOnSuffix(ac.TerminationSuffix)
		}

		switch {
		case ac.CodeExecution == nil && ac.Kind == config.KindUserProxy,
			ac.CodeExecution != nil && *ac.CodeExecution:
			o.CodeExecution = &codeCfg
		default:
			o.CodeExecution = nil
		}

		if ac.Kind == config.KindConversable || ac.Kind == "" {
			if ac.LLM {
				o.Model = t.model
			}
		}
	}

	switch ac.Kind {
	case config.KindAssistant:
		return agent.NewAssistantAgent(ac.Name, t.model, configure)
	case config.KindUserProxy:
		return agent.NewUserProxyAgent(ac.Name, configure)
	default:
		return agent.NewConversableAgent(ac.Name, configure)
	}
}

func (t *Team) buildGroupChat(opts Options) error {
	gcfg := t.cfg.GroupChat

	members := make([]core.Agent, 0, len(gcfg.Members))
	for _, name := range gcfg.Members {
		members = append(members, t.agents[name])
	}

	gc, err := groupchat.NewGroupChat(members, func(o *groupchat.Options) {
		o.AdminName = gcfg.AdminName
		o.MaxRound = gcfg.MaxRound
		o.AllowRepeatSpeaker = gcfg.AllowRepeatSpeaker
		if gcfg.SelectSpeakerTemplate != "" {
			o.SelectSpeakerTemplate = gcfg.SelectSpeakerTemplate
		}
		if gcfg.SelectSpeakerInstruction != "" {
			o.SelectSpeakerInstruction = gcfg.SelectSpeakerInstruction
		}
		o.Logger = t.logger
	})
	if err != nil {
		return fmt.Errorf("build group chat: %w", err)
	}

	mgr, err := groupchat.NewManager(gc, t.model, func(o *groupchat.ManagerOptions) {
		o.Name = gcfg.ManagerName
		o.Store = t.store
		o.Output = opts.Output
		o.Logger = t.logger
		o.Metrics = t.metrics
	})
	if err != nil {
		return fmt.Errorf("build group chat manager: %w", err)
	}

	t.manager = mgr

	return nil
}

// Agent returns the agent called name.
func (t *Team) Agent(name string) (*agent.ConversableAgent, error) {
	a, ok := t.agents[name]
	if !ok {
		return nil, core.InvalidArgument("no agent named %q", name)
	}
	return a, nil
}

// Agents returns the agent names in configuration order.
func (t *Team) Agents() []string { return append([]string(nil), t.order...) }

// Manager returns the group chat manager, or nil without a group chat.
func (t *Team) Manager() *groupchat.Manager { return t.manager }

// Model returns the completion model shared by the team.
func (t *Team) Model() model.Model { return t.model }

// Store returns the transcript store, or nil when transcripts are not kept.
func (t *Team) Store() core.TranscriptStore { return t.store }

// Run lets initiator start a conversation with message and returns when it
// has ended.
func (t *Team) Run(ctx context.Context, initiator, message string) error {
	from, err := t.Agent(initiator)
	if err != nil {
		return err
	}

	if t.manager != nil {
		return from.InitiateChat(ctx, t.manager, message)
	}

	for _, name := range t.order {
		if name != initiator {
			return from.InitiateChat(ctx, t.agents[name], message)
		}
	}

	return core.InvalidArgument("agent %q has nobody to talk to", initiator)
}

// Close flushes tracing and releases the transcript store.
func (t *Team) Close(ctx context.Context) error {
	var errs []error
	for _, fn := range t.shutdown {
		if err := fn(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
