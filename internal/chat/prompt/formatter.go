package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is a prompt template found in one of the prompt directories.
type Entry struct {
	Name string // relative path without extension, e.g. "foo/bar"
	Dir  string // directory the template was found in
}

// FindPrompt returns the path of the named prompt file.
// Later directories take precedence over earlier ones.
func FindPrompt(promptName string, promptDirs []string) (string, error) {
	promptFile := promptName
	if !strings.HasSuffix(promptFile, ".toml") {
		promptFile = promptFile + ".toml"
	}

	var promptPath string
	for _, promptDir := range promptDirs {
		candidatePath := filepath.Join(promptDir, promptFile)
		if _, err := os.Stat(candidatePath); err == nil {
			promptPath = candidatePath
		}
	}

	if promptPath == "" {
		return "", fmt.Errorf("prompt file '%s' not found in any of the prompt directories: %v", promptFile, promptDirs)
	}
	return promptPath, nil
}

// Instruction loads the named prompt and renders its system text with the
// given key:value arguments. An empty name yields an empty instruction.
func Instruction(promptName string, promptDirs []string, args []string) (string, *Prompt, error) {
	if promptName == "" {
		return "", nil, nil
	}

	promptPath, err := FindPrompt(promptName, promptDirs)
	if err != nil {
		return "", nil, err
	}

	promptTemplate, err := LoadPrompt(promptPath)
	if err != nil {
		return "", nil, fmt.Errorf("error loading prompt file: %v", err)
	}

	argMap, err := ParseArgs(args)
	if err != nil {
		return "", nil, fmt.Errorf("error processing arguments: %v", err)
	}

	return Render(promptTemplate.System, argMap), promptTemplate, nil
}

// Render replaces every {{key}} placeholder in text.
func Render(text string, replacements map[string]string) string {
	for key, value := range replacements {
		placeholder := fmt.Sprintf("{{%s}}", key)
		text = strings.ReplaceAll(text, placeholder, value)
	}
	return text
}

// ParseArgs processes the command line arguments and returns a map of key-value pairs
func ParseArgs(args []string) (map[string]string, error) {
	result := make(map[string]string)
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if strings.HasPrefix(arg, `"`) && strings.HasSuffix(arg, `"`) {
			arg = strings.Trim(arg, `"`)
		}

		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid argument format: %s. Expected format: key:value", arg)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			return nil, fmt.Errorf("invalid argument format: %s. Key cannot be empty", arg)
		}

		value = strings.ReplaceAll(value, `\:`, ":")
		value = strings.ReplaceAll(value, `\"`, `"`)
		result[key] = value
	}
	return result, nil
}

// List returns all prompt templates below the given directories sorted by name.
// When a name exists in several directories the first one found is kept.
func List(promptDirs []string) ([]Entry, error) {
	var entries []Entry
	seen := make(map[string]bool)

	for _, promptDir := range promptDirs {
		if _, err := os.Stat(promptDir); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(promptDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(d.Name(), ".toml") {
				return nil
			}

			relPath, err := filepath.Rel(promptDir, path)
			if err != nil {
				return nil
			}
			name := filepath.ToSlash(strings.TrimSuffix(relPath, ".toml"))
			if seen[name] {
				return nil
			}
			seen[name] = true
			entries = append(entries, Entry{Name: name, Dir: promptDir})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking prompt directory %s: %w", promptDir, err)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}
