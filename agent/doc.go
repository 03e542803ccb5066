// Package agent implements the conversable agent: a named participant that
// exchanges messages with peers, keeps a per peer ledger and produces replies
// through an ordered pipeline of reply strategies.
//
// The default pipeline, evaluated in order until one strategy decides:
//
//  1. check_termination_and_human_reply (termination predicate, auto reply budget, human input)
//  2. function_call (execute a proposed function call with the registered tools)
//  3. code_execution (run code blocks found in recent messages)
//  4. completion (ask the completion service)
//
// When no strategy decides, the agent answers with its default auto reply.
// Conversations are synchronous: Send calls the recipient's Receive, which may
// reply by calling Send in the opposite direction, until a reply is empty.
//
// NewAssistantAgent and NewUserProxyAgent provide the two common presets.
package agent
