package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildSystemPrompt(t *testing.T) {
	now := time.Date(2026, 3, 14, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name        string
		instruction string
		cutoff      string
		language    string
		want        string
	}{
		{
			name:        "all parts",
			instruction: "You are a helpful assistant.",
			cutoff:      "2023-10",
			language:    "ja",
			want: "You are a helpful assistant.\n" +
				"Knowledge cutoff: 2023-10\n" +
				"Current date: 2026-03-14\n" +
				"Respond entirely in ja, including any code comments or quoted text you write.",
		},
		{
			name:     "default language and no instruction",
			cutoff:   "2024-06",
			language: "",
			want: "Knowledge cutoff: 2024-06\n" +
				"Current date: 2026-03-14\n" +
				"Respond entirely in en, including any code comments or quoted text you write.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSystemPrompt(tt.instruction, tt.cutoff, tt.language, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildSystemPromptOrder(t *testing.T) {
	got := BuildSystemPrompt("base", "cutoff", "fr", time.Now())

	base := strings.Index(got, "base")
	cutoff := strings.Index(got, "Knowledge cutoff")
	date := strings.Index(got, "Current date")
	lang := strings.Index(got, "Respond entirely in fr")

	assert.True(t, base < cutoff && cutoff < date && date < lang, "unexpected order in %q", got)
}
