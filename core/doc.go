// Package core provides the foundational domain types and interfaces shared by
// the agentchat packages. It defines:
//
//   - Messages (role tagged conversational records, optionally carrying a function call)
//   - Ledger (per peer, append only conversation history owned by one agent)
//   - Agent (the send / receive / generate reply contract between participants)
//   - The error taxonomy surfaced by agents, the code sandbox and group chats
//   - TranscriptStore, the persistence boundary for group chat transcripts
//
// Concrete agents, the code sandbox and model adapters live in their own
// packages so this package stays free of implementation dependencies.
package core
