package core

import (
	"sort"
	"sync"
)

// Ledger keeps one ordered message history per peer name. Appends never
// reorder or drop earlier entries; only Clear and ClearAll remove history.
// It is safe for concurrent access, although a conversation drives it from a
// single goroutine.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string][]Message
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string][]Message)}
}

// Append stores a copy of msg at the end of the history for peer.
func (l *Ledger) Append(peer string, msg Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[peer] = append(l.entries[peer], msg.Clone())
}

// Messages returns a copy of the history for peer (nil when unknown).
func (l *Ledger) Messages(peer string) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return CloneMessages(l.entries[peer])
}

// Last returns the most recent message exchanged with peer.
func (l *Ledger) Last(peer string) (Message, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	msgs := l.entries[peer]
	if len(msgs) == 0 {
		return Message{}, false
	}
	return msgs[len(msgs)-1].Clone(), true
}

// Len returns the number of messages exchanged with peer.
func (l *Ledger) Len(peer string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries[peer])
}

// Peers returns the sorted names of every peer with recorded history.
func (l *Ledger) Peers() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	peers := make([]string, 0, len(l.entries))
	for p := range l.entries {
		peers = append(peers, p)
	}
	sort.Strings(peers)
	return peers
}

// Clear drops the history for a single peer.
func (l *Ledger) Clear(peer string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, peer)
}

// ClearAll drops every peer history.
func (l *Ledger) ClearAll() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make(map[string][]Message)
}
