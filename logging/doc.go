// Package logging provides a minimal logging interface and adapters for agentchat.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that agents, the code executor and the group chat manager use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter and ZapAdapter wrapping the common structured loggers
//   - ChatLogger, a level filtered slog logger with contextual cloning helpers
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	assistant := agent.NewAssistantAgent("assistant", m, func(o *agent.Options) {
//		o.Logger = logger
//	})
//
// All arguments after the message are slog style key/value pairs.
package logging
