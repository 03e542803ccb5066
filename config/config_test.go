package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentchat/code"
	"github.com/hupe1980/agentchat/core"
)

const teamYAML = `
log:
  level: debug
  format: text
model:
  provider: anthropic
  name: claude-test
  temperature: 0.2
code_execution:
  work_dir: /tmp/work
  timeout: 30s
  last_messages: -1
agents:
  - name: user_proxy
    kind: user_proxy
    human_input_mode: NEVER
    max_consecutive_auto_reply: 0
  - name: coder
    kind: assistant
  - name: critic
    kind: conversable
    llm: true
    system_message: You review code.
group_chat:
  members: [user_proxy, coder, critic]
  max_round: 5
transcript:
  backend: memory
`

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "team.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoader_FileOverridesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(writeFile(t, teamYAML)).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "slog", cfg.Log.Backend)
	assert.Equal(t, ProviderAnthropic, cfg.Model.Provider)
	assert.Equal(t, 4096, cfg.Model.MaxTokens)
	assert.Equal(t, 30*time.Second, cfg.CodeExecution.Timeout)
	assert.Equal(t, code.LastMessagesAuto, cfg.CodeExecution.LastMessages)
	require.Len(t, cfg.Agents, 3)
	require.NotNil(t, cfg.Agents[0].MaxConsecutiveAutoReply)
	assert.Equal(t, 0, *cfg.Agents[0].MaxConsecutiveAutoReply)
	assert.Nil(t, cfg.Agents[1].MaxConsecutiveAutoReply)
	assert.True(t, cfg.GroupChat.Enabled())
	assert.Equal(t, 5, cfg.GroupChat.MaxRound)
	assert.True(t, cfg.GroupChat.AllowRepeatSpeaker)
	assert.Equal(t, "Admin", cfg.GroupChat.AdminName)

	critic, err := cfg.Agent("critic")
	require.NoError(t, err)
	assert.True(t, critic.LLM)

	_, err = cfg.Agent("nobody")
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	t.Setenv("AGENTCHAT_MODEL_PROVIDER", "mock")
	t.Setenv("AGENTCHAT_MODEL_TEMPERATURE", "0.7")
	t.Setenv("AGENTCHAT_CODE_TIMEOUT", "5s")
	t.Setenv("AGENTCHAT_GROUP_MAX_ROUND", "3")
	t.Setenv("AGENTCHAT_REDIS_ADDR", "redis:6379")
	t.Setenv("AGENTCHAT_MODEL_BREAKER_MAX_FAILURES", "2")

	cfg, err := NewLoader().WithConfigPath(writeFile(t, teamYAML)).Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderMock, cfg.Model.Provider)
	assert.InDelta(t, 0.7, cfg.Model.Temperature, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.CodeExecution.Timeout)
	assert.Equal(t, 3, cfg.GroupChat.MaxRound)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, uint32(2), cfg.Model.CircuitBreaker.MaxFailures)
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("TEAM_LOG_LEVEL", "error")

	cfg, err := NewLoader().WithEnvPrefix("TEAM").Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_Errors(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		_, err := NewLoader().WithConfigPath(writeFile(t, "agents: [")).Load()
		assert.Error(t, err)
	})

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("AGENTCHAT_CODE_TIMEOUT", "soon")
		_, err := NewLoader().Load()
		assert.Error(t, err)
	})

	t.Run("custom validator", func(t *testing.T) {
		_, err := NewLoader().WithValidator(func(c *Config) error {
			return core.InvalidArgument("always")
		}).Load()
		assert.ErrorIs(t, err, core.ErrInvalidArgument)
	})
}

func TestValidate(t *testing.T) {
	five := 5
	negative := -1

	tests := []struct {
		name   string
		mutate func(c *Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"unknown provider", func(c *Config) { c.Model.Provider = "acme" }, false},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, false},
		{"bad last messages", func(c *Config) { c.CodeExecution.LastMessages = -2 }, false},
		{"unknown human input mode", func(c *Config) {
			c.Agents = []AgentConfig{{Name: "a", HumanInputMode: "SOMETIMES"}}
		}, false},
		{"duplicate agent", func(c *Config) {
			c.Agents = []AgentConfig{{Name: "a"}, {Name: "a"}}
		}, false},
		{"negative auto reply", func(c *Config) {
			c.Agents = []AgentConfig{{Name: "a", MaxConsecutiveAutoReply: &negative}}
		}, false},
		{"valid agent", func(c *Config) {
			c.Agents = []AgentConfig{{Name: "a", Kind: KindAssistant, MaxConsecutiveAutoReply: &five}}
		}, true},
		{"unknown group member", func(c *Config) {
			c.Agents = []AgentConfig{{Name: "a"}, {Name: "b"}}
			c.GroupChat.Members = []string{"a", "c"}
		}, false},
		{"underpopulated group", func(c *Config) {
			c.Agents = []AgentConfig{{Name: "a"}}
			c.GroupChat.Members = []string{"a"}
		}, false},
		{"non positive max round", func(c *Config) {
			c.Agents = []AgentConfig{{Name: "a"}, {Name: "b"}}
			c.GroupChat.Members = []string{"a", "b"}
			c.GroupChat.MaxRound = 0
		}, false},
		{"unknown transcript backend", func(c *Config) { c.Transcript.Backend = "s3" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, core.ErrInvalidArgument)
			}
		})
	}
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(teamYAML))
	require.NoError(t, err)
	assert.Equal(t, "claude-test", cfg.Model.Name)

	_, err = Parse([]byte("model:\n  provider: acme\n"))
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestCodeConfig_ToCode(t *testing.T) {
	c := CodeConfig{WorkDir: "w", Image: "python:3", Timeout: time.Second, LastMessages: 2}
	assert.Equal(t, code.Config{WorkDir: "w", Image: "python:3", Timeout: time.Second, LastMessages: 2}, c.ToCode())
}
