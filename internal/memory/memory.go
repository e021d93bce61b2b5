// Package memory keeps per-session chat history. Records live in process
// memory for fast access and are written through to a Store on every turn.
package memory

import (
	"context"
	"errors"
)

// Roles stored in a Record.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrInvalidSessionID is returned for ids that cannot key a stored record.
var ErrInvalidSessionID = errors.New("invalid session id")

// Message is one stored chat turn.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// Record is the persisted history of one session. LastActivity is epoch
// milliseconds.
type Record struct {
	Messages     []Message `json:"messages"`
	LastActivity int64     `json:"lastActivity"`
	SessionID    string    `json:"sessionId"`
}

func (r *Record) clone() *Record {
	out := *r
	out.Messages = append([]Message(nil), r.Messages...)
	return &out
}

// Store persists records.
type Store interface {
	// Load returns the record for sessionID, or nil when none was saved.
	Load(ctx context.Context, sessionID string) (*Record, error)
	// Save replaces the stored record. Last write wins.
	Save(ctx context.Context, rec *Record) error
	Close() error
}
