package chat

import (
	"fmt"

	"github.com/google/uuid"
)

// Identity is the continuation handle threaded by the caller across turns.
// Both fields are empty on the first turn of a conversation.
type Identity struct {
	MessageID string `json:"message_id,omitempty"`
	ThreadID  string `json:"thread_id,omitempty"`
}

// IsZero reports whether the identity carries no reference at all.
func (i Identity) IsZero() bool {
	return i.MessageID == "" && i.ThreadID == ""
}

// HasHistory reports whether the identity points at a prior turn.
func (i Identity) HasHistory() bool {
	return i.MessageID != "" && i.ThreadID != ""
}

// IDGenerator mints message and thread references.
type IDGenerator interface {
	NewID() string
}

// IDFunc adapts a plain function to IDGenerator.
type IDFunc func() string

// NewID calls f.
func (f IDFunc) NewID() string {
	return f()
}

// UUIDGenerator mints random UUIDv4 values. Their leading characters are
// random, so short ID prefixes of threads stay distinct.
type UUIDGenerator struct{}

// NewID returns a new random UUID
func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}

func messageRef(role Role, ids IDGenerator) string {
	return fmt.Sprintf("%s-%s", role, ids.NewID())
}

func threadRef(ids IDGenerator) string {
	return "thread-" + ids.NewID()
}
