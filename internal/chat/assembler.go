package chat

import (
	"context"

	"github.com/rs/zerolog"
)

// HistoryProvider resolves a thread reference to the messages of prior turns.
type HistoryProvider interface {
	List(ctx context.Context, threadID string) ([]Message, error)
}

// Assembler builds the ordered message sequence sent for one turn.
type Assembler struct {
	history HistoryProvider
	logger  zerolog.Logger
}

// NewAssembler creates an Assembler. A nil history provider disables history.
func NewAssembler(history HistoryProvider, logger zerolog.Logger) *Assembler {
	return &Assembler{
		history: history,
		logger:  logger,
	}
}

// Assemble returns system prompt, prior messages (if any) and the new user message.
// A failing history lookup is logged and the turn continues without history.
func (a *Assembler) Assemble(ctx context.Context, systemPrompt, userMessage string, identity Identity) []Message {
	messages := []Message{{Role: RoleSystem, Content: systemPrompt}}

	if identity.HasHistory() && a.history != nil {
		prior, err := a.history.List(ctx, identity.ThreadID)
		if err != nil {
			a.logger.Warn().
				Err(err).
				Str("thread_id", identity.ThreadID).
				Msg("history unavailable, continuing without it")
		} else {
			for _, m := range prior {
				// The sequence carries exactly one system message.
				if m.Role == RoleSystem {
					continue
				}
				messages = append(messages, m)
			}
		}
	}

	return append(messages, Message{Role: RoleUser, Content: userMessage})
}
