// Package groupchat runs multi agent conversations. A GroupChat holds the
// roster and the shared transcript; a Manager is a conversable agent whose
// first reply strategy drives the round loop: record the message, broadcast
// it, ask the model for the next speaker and let that speaker answer.
//
// The next speaker is the single roster name mentioned as a whole word in the
// model's answer. Zero or several mentions are reported as
// core.ErrAmbiguousSpeaker, after which the admin agent (if present) speaks.
package groupchat
