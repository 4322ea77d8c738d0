package chat

import "strings"

// DefaultStripPrefix is the leading artifact some completions carry.
const DefaultStripPrefix = "with "

// Normalizer cleans raw model output and derives the next Identity.
type Normalizer struct {
	// Prefix is removed once from the start of a reply. Empty disables stripping.
	Prefix string
	IDs    IDGenerator
}

// NewNormalizer creates a Normalizer. A nil generator mints random UUID references.
func NewNormalizer(prefix string, ids IDGenerator) *Normalizer {
	if ids == nil {
		ids = UUIDGenerator{}
	}
	return &Normalizer{Prefix: prefix, IDs: ids}
}

// Clean strips the configured prefix at most once.
func (n *Normalizer) Clean(content string) string {
	if n.Prefix == "" {
		return content
	}
	return strings.TrimPrefix(content, n.Prefix)
}

// Normalize returns the cleaned reply text and the identity for the next turn.
// The thread reference is carried over, or minted when the turn started a thread.
func (n *Normalizer) Normalize(reply Message, in Identity) (string, Identity) {
	role := reply.Role
	if role == "" {
		role = RoleAssistant
	}

	out := Identity{
		MessageID: messageRef(role, n.IDs),
		ThreadID:  in.ThreadID,
	}
	if out.ThreadID == "" {
		out.ThreadID = threadRef(n.IDs)
	}
	return n.Clean(reply.Content), out
}
