// Package config loads the declarative description of a team of agents:
// model provider, logging, code execution, agents, group chat and the
// optional metrics, tracing and transcript backends.
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("team.yaml").
//	    WithEnvPrefix("AGENTCHAT").
//	    Load()
//
// Priority: defaults, then the YAML file, then environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/agentchat/agent"
	"github.com/hupe1980/agentchat/code"
	"github.com/hupe1980/agentchat/core"
	"github.com/hupe1980/agentchat/groupchat"
	"github.com/hupe1980/agentchat/logging"
	"github.com/hupe1980/agentchat/transcript/redisstore"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Supported agent kinds.
const (
	KindConversable = "conversable"
	KindAssistant   = "assistant"
	KindUserProxy   = "user_proxy"
)

// Config is the complete agentchat configuration.
type Config struct {
	Log           LogConfig        `yaml:"log" env:"LOG"`
	Model         ModelConfig      `yaml:"model" env:"MODEL"`
	CodeExecution CodeConfig       `yaml:"code_execution" env:"CODE"`
	Agents        []AgentConfig    `yaml:"agents" env:"-"`
	GroupChat     GroupChatConfig  `yaml:"group_chat" env:"GROUP"`
	Metrics       MetricsConfig    `yaml:"metrics" env:"METRICS"`
	Tracing       TracingConfig    `yaml:"tracing" env:"TRACING"`
	Transcript    TranscriptConfig `yaml:"transcript" env:"TRANSCRIPT"`
	Redis         RedisConfig      `yaml:"redis" env:"REDIS"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// Format: json or text
	Format string `yaml:"format" env:"FORMAT"`
	// Backend: slog or zap
	Backend   string `yaml:"backend" env:"BACKEND"`
	AddSource bool   `yaml:"add_source" env:"ADD_SOURCE"`
}

// ModelConfig configures the completion service shared by all agents.
type ModelConfig struct {
	Provider string `yaml:"provider" env:"PROVIDER"`
	// Name selects the model; empty uses the provider default.
	Name        string  `yaml:"name" env:"NAME"`
	APIKey      string  `yaml:"api_key" env:"API_KEY"`
	BaseURL     string  `yaml:"base_url" env:"BASE_URL"`
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE"`
	MaxTokens   int     `yaml:"max_tokens" env:"MAX_TOKENS"`
	// RateLimit is the allowed requests per second; zero disables limiting.
	RateLimit      float64              `yaml:"rate_limit" env:"RATE_LIMIT"`
	Burst          int                  `yaml:"burst" env:"BURST"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker" env:"BREAKER"`
}

// CircuitBreakerConfig configures the breaker around the completion service.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled" env:"ENABLED"`
	MaxFailures uint32        `yaml:"max_failures" env:"MAX_FAILURES"`
	Timeout     time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// CodeConfig configures the code execution sandbox.
type CodeConfig struct {
	WorkDir      string        `yaml:"work_dir" env:"WORK_DIR"`
	Image        string        `yaml:"image" env:"IMAGE"`
	Timeout      time.Duration `yaml:"timeout" env:"TIMEOUT"`
	LastMessages int           `yaml:"last_messages" env:"LAST_MESSAGES"`
}

// ToCode converts the section into a code.Config.
func (c CodeConfig) ToCode() code.Config {
	return code.Config{
		WorkDir:      c.WorkDir,
		Image:        c.Image,
		Timeout:      c.Timeout,
		LastMessages: c.LastMessages,
	}
}

// AgentConfig declares one agent.
type AgentConfig struct {
	Name string `yaml:"name"`
	// Kind: conversable, assistant or user_proxy
	Kind           string `yaml:"kind"`
	SystemMessage  string `yaml:"system_message"`
	HumanInputMode string `yaml:"human_input_mode"`
	// MaxConsecutiveAutoReply overrides the kind's default when set.
	MaxConsecutiveAutoReply *int   `yaml:"max_consecutive_auto_reply"`
	DefaultAutoReply        string `yaml:"default_auto_reply"`
	// LLM attaches the shared model to a conversable agent.
	LLM bool `yaml:"llm"`
	// CodeExecution overrides the kind's default when set.
	CodeExecution *bool `yaml:"code_execution"`
	// TerminationSuffix ends the conversation on messages ending with it
	// instead of messages equal to TERMINATE.
	TerminationSuffix string `yaml:"termination_suffix"`
}

// GroupChatConfig declares an optional group chat over configured agents.
type GroupChatConfig struct {
	Members            []string `yaml:"members" env:"MEMBERS"`
	AdminName          string   `yaml:"admin_name" env:"ADMIN_NAME"`
	MaxRound           int      `yaml:"max_round" env:"MAX_ROUND"`
	AllowRepeatSpeaker bool     `yaml:"allow_repeat_speaker" env:"ALLOW_REPEAT_SPEAKER"`
	ManagerName        string   `yaml:"manager_name" env:"MANAGER_NAME"`
	// Empty templates keep the built-in selection prompts.
	SelectSpeakerTemplate    string `yaml:"select_speaker_template" env:"SELECT_SPEAKER_TEMPLATE"`
	SelectSpeakerInstruction string `yaml:"select_speaker_instruction" env:"SELECT_SPEAKER_INSTRUCTION"`
}

// Enabled reports whether a group chat is configured.
func (g GroupChatConfig) Enabled() bool { return len(g.Members) > 0 }

// MetricsConfig configures Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// Exporter: stdout or none
	Exporter string `yaml:"exporter" env:"EXPORTER"`
}

// TranscriptConfig selects where group chat transcripts are mirrored.
type TranscriptConfig struct {
	// Backend: none, memory or redis
	Backend   string        `yaml:"backend" env:"BACKEND"`
	KeyPrefix string        `yaml:"key_prefix" env:"KEY_PREFIX"`
	TTL       time.Duration `yaml:"ttl" env:"TTL"`
}

// RedisConfig configures the Redis connection used by the redis transcript backend.
type RedisConfig struct {
	Addr string `yaml:"addr" env:"ADDR"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Format:  "json",
			Backend: "slog",
		},
		Model: ModelConfig{
			Provider:  ProviderOpenAI,
			MaxTokens: 4096,
			Burst:     1,
			CircuitBreaker: CircuitBreakerConfig{
				MaxFailures: 5,
				Timeout:     30 * time.Second,
			},
		},
		CodeExecution: CodeConfig{
			WorkDir:      code.DefaultWorkDir,
			Timeout:      code.DefaultTimeout,
			LastMessages: 1,
		},
		GroupChat: GroupChatConfig{
			AdminName:          groupchat.DefaultAdminName,
			MaxRound:           groupchat.DefaultMaxRound,
			AllowRepeatSpeaker: true,
			ManagerName:        groupchat.DefaultManagerName,
		},
		Metrics: MetricsConfig{Namespace: "agentchat"},
		Tracing: TracingConfig{Exporter: "stdout"},
		Transcript: TranscriptConfig{
			Backend:   "none",
			KeyPrefix: redisstore.DefaultKeyPrefix,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
	}
}

// Validate checks the configuration. All failures are reported together and
// wrap core.ErrInvalidArgument.
func (c *Config) Validate() error {
	var errs []string

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Sprintf("unknown log format %q", c.Log.Format))
	}
	if c.Log.Backend != "slog" && c.Log.Backend != "zap" {
		errs = append(errs, fmt.Sprintf("unknown log backend %q", c.Log.Backend))
	}

	switch c.Model.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		errs = append(errs, fmt.Sprintf("unknown model provider %q", c.Model.Provider))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, "model temperature must be between 0 and 2")
	}
	if c.Model.RateLimit < 0 {
		errs = append(errs, "model rate limit must not be negative")
	}

	if c.CodeExecution.LastMessages < code.LastMessagesAuto {
		errs = append(errs, fmt.Sprintf("code_execution.last_messages must be >= %d", code.LastMessagesAuto))
	}
	if c.CodeExecution.Timeout < 0 {
		errs = append(errs, "code_execution.timeout must not be negative")
	}

	names := make(map[string]struct{}, len(c.Agents))
	for i, a := range c.Agents {
		if a.Name == "" {
			errs = append(errs, fmt.Sprintf("agents[%d]: name is required", i))
			continue
		}
		if _, dup := names[a.Name]; dup {
			errs = append(errs, fmt.Sprintf("duplicate agent name %q", a.Name))
		}
		names[a.Name] = struct{}{}

		switch a.Kind {
		case "", KindConversable, KindAssistant, KindUserProxy:
		default:
			errs = append(errs, fmt.Sprintf("agent %q: unknown kind %q", a.Name, a.Kind))
		}
		if a.HumanInputMode != "" {
			if _, err := agent.ParseHumanInputMode(a.HumanInputMode); err != nil {
				errs = append(errs, fmt.Sprintf("agent %q: unknown human input mode %q", a.Name, a.HumanInputMode))
			}
		}
		if a.MaxConsecutiveAutoReply != nil && *a.MaxConsecutiveAutoReply < 0 {
			errs = append(errs, fmt.Sprintf("agent %q: max_consecutive_auto_reply must not be negative", a.Name))
		}
	}

	if g := c.GroupChat; g.Enabled() {
		if len(g.Members) < 2 {
			errs = append(errs, "group_chat needs at least two members")
		}
		for _, m := range g.Members {
			if _, ok := names[m]; !ok {
				errs = append(errs, fmt.Sprintf("group_chat member %q is not a configured agent", m))
			}
		}
		if g.MaxRound <= 0 {
			errs = append(errs, "group_chat.max_round must be positive")
		}
		if _, clash := names[g.ManagerName]; clash {
			errs = append(errs, fmt.Sprintf("group_chat.manager_name %q clashes with an agent", g.ManagerName))
		}
	}

	switch c.Transcript.Backend {
	case "", "none", "memory":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr is required for the redis transcript backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown transcript backend %q", c.Transcript.Backend))
	}

	if c.Tracing.Enabled && c.Tracing.Exporter != "stdout" && c.Tracing.Exporter != "none" {
		errs = append(errs, fmt.Sprintf("unknown tracing exporter %q", c.Tracing.Exporter))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", core.ErrInvalidArgument, strings.Join(errs, "; "))
	}

	return nil
}

// Agent returns the declaration of the agent called name.
func (c *Config) Agent(name string) (AgentConfig, error) {
	for _, a := range c.Agents {
		if a.Name == name {
			return a, nil
		}
	}
	return AgentConfig{}, core.InvalidArgument("no agent named %q", name)
}
