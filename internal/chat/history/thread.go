package history

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/longkey1/turnchat/internal/chat"
)

// Record is a stored message of a thread.
// Content is kept raw so that entries written by other tools survive decoding.
type Record struct {
	ID        string          `json:"id"`
	Role      chat.Role       `json:"role"`
	Content   json.RawMessage `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
}

// Thread represents a conversation thread
type Thread struct {
	ID            string    `json:"id"`              // e.g. "thread-01920d6e-..."
	Name          string    `json:"name"`            // Optional thread name (empty by default)
	Model         string    `json:"model"`           // Model used for the last turn
	LastMessageID string    `json:"last_message_id"` // Continuation handle of the last turn
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Records       []Record  `json:"messages"`
}

// NewThread creates an empty thread with the given ID
func NewThread(id string) *Thread {
	now := time.Now()
	return &Thread{
		ID:        id,
		CreatedAt: now,
		UpdatedAt: now,
		Records:   []Record{},
	}
}

// Append adds messages to the thread
func (t *Thread) Append(messages ...chat.Message) {
	now := time.Now()
	for _, m := range messages {
		content, _ := jsonString(m.Content)
		t.Records = append(t.Records, Record{
			ID:        m.ID,
			Role:      m.Role,
			Content:   content,
			Timestamp: now,
		})
		if m.Role == chat.RoleAssistant && m.ID != "" {
			t.LastMessageID = m.ID
		}
	}
	t.UpdatedAt = now
}

// Messages converts the stored records into chat messages.
// Records whose content is not text get empty content.
func (t *Thread) Messages() []chat.Message {
	messages := make([]chat.Message, 0, len(t.Records))
	for _, r := range t.Records {
		messages = append(messages, chat.Message{
			ID:      r.ID,
			Role:    r.Role,
			Content: chat.TextContent(r.Content),
		})
	}
	return messages
}

// Identity returns the continuation handle that resumes this thread
func (t *Thread) Identity() chat.Identity {
	return chat.Identity{MessageID: t.LastMessageID, ThreadID: t.ID}
}

// GetShortID returns the shortened thread ID (first 8 characters after the "thread-" prefix)
func (t *Thread) GetShortID() string {
	id := strings.TrimPrefix(t.ID, "thread-")
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// GetDisplayName returns the display name for the thread
// If name is set, returns the name. Otherwise, returns the short ID.
func (t *Thread) GetDisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return t.GetShortID()
}

// MessageCount returns the number of messages in the thread
func (t *Thread) MessageCount() int {
	return len(t.Records)
}

func jsonString(s string) (json.RawMessage, error) {
	return json.Marshal(s)
}
