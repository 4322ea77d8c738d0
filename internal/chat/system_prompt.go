package chat

import (
	"fmt"
	"strings"
	"time"
)

// DefaultLanguage is used when no target language is configured.
const DefaultLanguage = "en"

// BuildSystemPrompt composes the system instruction for every turn of a Chatter.
// The result contains, in order, the base instruction, the knowledge cutoff,
// the current date and the reply-language directive.
func BuildSystemPrompt(instruction, knowledgeCutoff, language string, now time.Time) string {
	if language == "" {
		language = DefaultLanguage
	}

	var lines []string
	if s := strings.TrimSpace(instruction); s != "" {
		lines = append(lines, s)
	}
	if knowledgeCutoff != "" {
		lines = append(lines, fmt.Sprintf("Knowledge cutoff: %s", knowledgeCutoff))
	}
	lines = append(lines, fmt.Sprintf("Current date: %s", now.Format("2006-01-02")))
	lines = append(lines, fmt.Sprintf("Respond entirely in %s, including any code comments or quoted text you write.", language))
	return strings.Join(lines, "\n")
}
