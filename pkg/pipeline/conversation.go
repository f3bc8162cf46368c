// Package pipeline runs one voice interaction turn end to end:
// record the operator's speech, transcribe it, apply the command to
// the task store, and speak the response back.
//
// Each turn's own state is the Turn value returned by RunTurn; turns
// never read earlier history. The Conversation is a session-long
// transcript kept for the dashboard, not per-turn state.
package pipeline

import (
	"sync"
	"time"
)

// Role tags who produced a conversation entry.
type Role string

const (
	// RoleUser marks transcribed operator speech.
	RoleUser Role = "user"

	// RoleAssistant marks spoken responses.
	RoleAssistant Role = "assistant"
)

// Entry is one utterance in the conversation history.
type Entry struct {
	Role Role      `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Conversation accumulates the full exchange across turns. Safe for
// concurrent use; the web layer reads it while the loop appends.
type Conversation struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewConversation creates an empty conversation history.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append records an utterance.
func (c *Conversation) Append(role Role, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Role: role, Text: text, At: time.Now()})
}

// Entries returns a copy of the history in order.
func (c *Conversation) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Entry(nil), c.entries...)
}

// Len returns the number of entries.
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
