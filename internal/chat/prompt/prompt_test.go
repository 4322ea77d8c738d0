package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePrompt(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name+".toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]string
		wantErr bool
	}{
		{name: "simple", args: []string{"tone:formal"}, want: map[string]string{"tone": "formal"}},
		{name: "quoted", args: []string{`"topic: go"`}, want: map[string]string{"topic": "go"}},
		{name: "escaped colon", args: []string{`url:http\://x`}, want: map[string]string{"url": "http://x"}},
		{name: "value with colon", args: []string{"time:12:30"}, want: map[string]string{"time": "12:30"}},
		{name: "missing colon", args: []string{"tone"}, wantErr: true},
		{name: "empty key", args: []string{":x"}, wantErr: true},
		{name: "none", args: nil, want: map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstruction(t *testing.T) {
	low := t.TempDir()
	high := t.TempDir()
	writePrompt(t, low, "support", `system = "low priority"`)
	writePrompt(t, high, "support", `
system = "You answer {{product}} questions in a {{tone}} tone."
language = "ja"
`)

	got, tmpl, err := Instruction("support", []string{low, high}, []string{"product:turnchat", "tone:friendly"})
	require.NoError(t, err)
	assert.Equal(t, "You answer turnchat questions in a friendly tone.", got)
	require.NotNil(t, tmpl.Language)
	assert.Equal(t, "ja", *tmpl.Language)
	assert.Nil(t, tmpl.Model)
}

func TestInstructionEmptyName(t *testing.T) {
	got, tmpl, err := Instruction("", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Nil(t, tmpl)
}

func TestInstructionNotFound(t *testing.T) {
	_, _, err := Instruction("missing", []string{t.TempDir()}, nil)
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	writePrompt(t, a, "zeta", `system = "z"`)
	writePrompt(t, a, "team/review", `system = "r"`)
	writePrompt(t, b, "zeta", `system = "z2"`)
	writePrompt(t, b, "alpha", `system = "a"`)
	require.NoError(t, os.WriteFile(filepath.Join(b, "notes.txt"), []byte("x"), 0644))

	entries, err := List([]string{a, b, filepath.Join(a, "does-not-exist")})
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"alpha", "team/review", "zeta"}, names)
	assert.Equal(t, a, entries[2].Dir)
}
