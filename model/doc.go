// Package model defines the completion service boundary used by agents and
// group chat managers.
//
// A Model receives the full message list (system message first) plus optional
// tool definitions and returns one or more candidate messages. Streaming and
// non-streaming generation share the channel based Generate method; Complete
// drains it for callers that only need the final response.
//
// Providers (OpenAI, Anthropic) live in sub packages. MockModel and
// ScriptedModel serve tests and examples. WithRateLimit and WithCircuitBreaker
// decorate any Model.
package model
