package hub

import "sync"

// TypingEntry records who is typing where. The project id is captured at
// typing-start time so the retraction on disconnect goes to the room the
// signal was sent to, even if the connection's memberships changed since.
type TypingEntry struct {
	ProjectID string
	UserID    string
	UserName  string
}

// TypingTracker is the ephemeral, process-local typing state, keyed by
// connection id. Never persisted; single-instance scope.
type TypingTracker struct {
	mu      sync.Mutex
	entries map[string]TypingEntry
}

func NewTypingTracker() *TypingTracker {
	return &TypingTracker{
		entries: make(map[string]TypingEntry),
	}
}

// Set stores or overwrites the typing entry for a connection.
func (t *TypingTracker) Set(clientID string, entry TypingEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[clientID] = entry
}

// Clear removes the entry for a connection and returns it, so the caller can
// broadcast the typing-stopped retraction to the recorded room.
func (t *TypingTracker) Clear(clientID string) (TypingEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[clientID]
	if ok {
		delete(t.entries, clientID)
	}
	return entry, ok
}

// Get returns the current entry for a connection without removing it.
func (t *TypingTracker) Get(clientID string) (TypingEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[clientID]
	return entry, ok
}
