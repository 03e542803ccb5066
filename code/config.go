package code

import "time"

const (
	// DefaultWorkDir is the working directory used when Config.WorkDir is empty.
	DefaultWorkDir = "extensions"
	// DefaultTimeout bounds a single execution when Config.Timeout is zero.
	DefaultTimeout = 600 * time.Second
	// LastMessagesAuto scans back to the most recent user message.
	LastMessagesAuto = -1
)

// Config configures code execution for an agent.
type Config struct {
	// WorkDir receives the temporary code files. Relative paths are resolved
	// against the process working directory.
	WorkDir string `yaml:"work_dir" json:"work_dir"`
	// Image selects container execution when non-empty.
	Image string `yaml:"image" json:"image"`
	// Timeout bounds each execution.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// LastMessages is how many recent messages the code execution reply
	// scans for code blocks; LastMessagesAuto selects the automatic window.
	LastMessages int `yaml:"last_messages" json:"last_messages"`
}

// DefaultConfig returns local execution in ./extensions scanning one message.
func DefaultConfig() Config {
	return Config{WorkDir: DefaultWorkDir, Timeout: DefaultTimeout, LastMessages: 1}
}

func (c Config) withDefaults() Config {
	if c.WorkDir == "" {
		c.WorkDir = DefaultWorkDir
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
