/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/longkey1/turnchat/internal/chat"
	"github.com/longkey1/turnchat/internal/chat/config"
	"github.com/longkey1/turnchat/internal/chat/history"
	promptpkg "github.com/longkey1/turnchat/internal/chat/prompt"
	"github.com/spf13/cobra"
)

var (
	model      string
	prompt     string
	argFlags   []string
	useEditor  bool
	messageID  string
	threadID   string
	threadRef  string
	jsonOutput bool
)

// turnResult is the --json output of a turn
type turnResult struct {
	Reply     string `json:"reply"`
	MessageID string `json:"message_id"`
	ThreadID  string `json:"thread_id"`
}

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message and print the reply",
	Long: `Send one message to the model and print the reply.

The reply is printed to stdout and the continuation handle (message and thread ID)
to stderr. Pass the handle back with --message-id and --thread-id, or use
--thread with a thread ID prefix or "latest", to continue the conversation.

If no message is provided as an argument, it reads from stdin.
If --editor flag is set, it opens the default editor (from EDITOR environment variable) to compose the message.

The prompt file should be in TOML format with the following structure:
system = "Base instruction with optional {{key}} placeholders"
model = "optional-model-name"        # Optional: overrides the configured model
language = "optional-language"       # Optional: overrides the reply language
knowledge_cutoff = "optional-cutoff" # Optional: overrides the knowledge cutoff`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if threadRef != "" && (messageID != "" || threadID != "") {
			return fmt.Errorf("cannot specify --thread together with --message-id or --thread-id")
		}

		message, err := readMessage(args)
		if err != nil {
			return err
		}
		if message == "" {
			return fmt.Errorf("message is empty")
		}

		// Prompt template: flag > config
		promptName := cfg.Prompt
		if cmd.Flags().Changed("prompt") {
			promptName = prompt
		}
		instruction, tmpl, err := promptpkg.Instruction(promptName, cfg.PromptDirs, argFlags)
		if err != nil {
			return fmt.Errorf("loading prompt: %w", err)
		}
		applyPrompt(cfg, tmpl)

		// Model: flag > env/config > prompt template
		if cmd.Flags().Changed("model") {
			cfg.Model = model
		}

		completer, err := newProvider(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize completion client")
		}

		store, err := newStore(cfg)
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer store.Close()

		identity := chat.Identity{MessageID: messageID, ThreadID: threadID}
		if threadRef != "" {
			thread, err := history.FindByPrefix(cmd.Context(), store, threadRef)
			if err != nil {
				return fmt.Errorf("finding thread: %w", err)
			}
			identity = thread.Identity()
		}

		chatter := chat.New(completer, store, cfg.ChatOptions(instruction), logger)
		logger.Debug().
			Str("model", cfg.Model).
			Str("thread_id", identity.ThreadID).
			Str("system_prompt", chatter.SystemPrompt()).
			Msg("starting turn")

		reply, next := chatter.Chat(cmd.Context(), message, identity)
		if next.IsZero() {
			return fmt.Errorf("no reply received")
		}

		userMessage := chat.Message{
			ID:      "user-" + chat.UUIDGenerator{}.NewID(),
			Role:    chat.RoleUser,
			Content: message,
		}
		assistantMessage := chat.Message{ID: next.MessageID, Role: chat.RoleAssistant, Content: reply}
		if err := store.Record(cmd.Context(), next.ThreadID, cfg.Model, userMessage, assistantMessage); err != nil {
			logger.Warn().Err(err).Str("thread_id", next.ThreadID).Msg("failed to record turn")
		}

		if jsonOutput {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(turnResult{Reply: reply, MessageID: next.MessageID, ThreadID: next.ThreadID})
		}

		fmt.Fprintln(cmd.OutOrStdout(), reply)
		fmt.Fprintf(cmd.ErrOrStderr(), "\nmessage_id: %s\nthread_id: %s\n", next.MessageID, next.ThreadID)
		fmt.Fprintf(cmd.ErrOrStderr(), "\nNext time, use:\n  turnchat chat --message-id %s --thread-id %s \"your message\"\n", next.MessageID, next.ThreadID)
		return nil
	},
}

// applyPrompt overrides configuration values set by a prompt template
func applyPrompt(cfg *config.Config, tmpl *promptpkg.Prompt) {
	if tmpl == nil {
		return
	}
	if tmpl.Model != nil {
		cfg.Model = *tmpl.Model
	}
	if tmpl.Language != nil {
		cfg.Language = *tmpl.Language
	}
	if tmpl.KnowledgeCutoff != nil {
		cfg.KnowledgeCutoff = *tmpl.KnowledgeCutoff
	}
}

// readMessage returns the message from the editor, the arguments or stdin
func readMessage(args []string) (string, error) {
	if useEditor {
		message, err := getMessageFromEditor()
		if err != nil {
			return "", fmt.Errorf("getting message from editor: %w", err)
		}
		return message, nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading from stdin: %w", err)
	}
	return strings.TrimSpace(string(input)), nil
}

// getMessageFromEditor opens the default editor and returns the edited message
func getMessageFromEditor() (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return "", fmt.Errorf("EDITOR environment variable is not set")
	}

	tmpFile, err := os.CreateTemp("", "turnchat-*.txt")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpFile.Close()
	defer os.Remove(tmpFile.Name())

	cmd := exec.Command(editor, tmpFile.Name())
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to open editor: %w", err)
	}

	content, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("failed to read edited content: %w", err)
	}
	return strings.TrimSpace(string(content)), nil
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVarP(&model, "model", "m", "", "Model to use (e.g., gpt-4.1)")
	chatCmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Name of the prompt template (without .toml extension)")
	chatCmd.Flags().StringArrayVar(&argFlags, "arg", []string{}, "Key-value pairs for prompt template (format: key:value)")
	chatCmd.Flags().BoolVarP(&useEditor, "editor", "e", false, "Use default editor (from EDITOR environment variable) to compose message")
	chatCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the reply and continuation handle as JSON")

	chatCmd.Flags().StringVar(&messageID, "message-id", "", "Message ID returned by the previous turn")
	chatCmd.Flags().StringVar(&threadID, "thread-id", "", "Thread ID returned by the previous turn")
	chatCmd.Flags().StringVarP(&threadRef, "thread", "t", "", "Continue a stored thread (short or full ID, or 'latest')")
}
