package chat

import "encoding/json"

// Role identifies the author of a message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message represents a single message in a conversation
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`    // "system", "user" or "assistant"
	Content string `json:"content"` // Always text, never absent
	Raw     string `json:"-"`       // Provider payload, set on completions only
}

// TextContent converts stored message content to text.
// Anything that is not a string (or a JSON string) becomes "".
func TextContent(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case []byte:
		return string(c)
	case *string:
		if c != nil {
			return *c
		}
	case json.RawMessage:
		var s string
		if err := json.Unmarshal(c, &s); err == nil {
			return s
		}
	}
	return ""
}
