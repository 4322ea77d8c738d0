/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"text/tabwriter"
	"time"

	"github.com/longkey1/turnchat/internal/chat/config"
	"github.com/longkey1/turnchat/internal/chat/history"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
)

// openStore loads the configuration and opens the history store it selects
func openStore() (*config.Config, history.Store, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	store, err := newStore(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history store: %w", err)
	}
	return cfg, store, nil
}

// confirm asks a yes/no question on stdout
func confirm(format string, args ...any) bool {
	fmt.Printf(format+" [y/N]: ", args...)
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

// threadsCmd represents the threads command
var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "Manage recorded conversation threads",
	Long: `Manage recorded conversation threads including listing, viewing, and deleting threads.

Every successful 'turnchat chat' records the turn in the configured history store.`,
}

// threadsListCmd represents the threads list command
var threadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all threads",
	Long:  `List all conversation threads sorted by most recently updated.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		threads, err := store.Threads(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing threads: %w", err)
		}

		if len(threads) == 0 {
			fmt.Println("No threads found.")
			fmt.Println("\nStart a new thread with:")
			fmt.Println("  turnchat chat \"your message\"")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tMODEL\tUPDATED\tMESSAGES\tNAME")
		fmt.Fprintln(w, "--\t-----\t-------\t--------\t----")
		for _, t := range threads {
			name := t.Name
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				t.GetShortID(),
				t.Model,
				t.UpdatedAt.Format("2006-01-02 15:04"),
				t.MessageCount(),
				name,
			)
		}
		w.Flush()

		fmt.Println("\nUse 'turnchat threads show <id>' to view thread details.")
		return nil
	},
}

// threadsShowCmd represents the threads show command
var threadsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show thread details and history",
	Long: `Show detailed information about a thread including all messages.

The ID can be a short ID (minimum 4 characters), full ID, or "latest" for the most recent thread.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		t, err := history.FindByPrefix(cmd.Context(), store, args[0])
		if err != nil {
			return fmt.Errorf("finding thread: %w", err)
		}

		fmt.Printf("Thread: %s\n", t.ID)
		if t.Name != "" {
			fmt.Printf("Name: %s\n", t.Name)
		}
		fmt.Printf("Model: %s\n", t.Model)
		fmt.Printf("Created: %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated: %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Last Message: %s\n", t.LastMessageID)
		fmt.Printf("Messages: %d\n", t.MessageCount())
		fmt.Println()

		if t.MessageCount() == 0 {
			fmt.Println("No messages in this thread.")
			return nil
		}

		fmt.Println("Message History:")
		fmt.Println("----------------")
		for i, msg := range t.Messages() {
			roleLabel := "You"
			if msg.Role == "assistant" {
				roleLabel = "Assistant"
			}
			fmt.Printf("\n[%d] %s (%s):\n%s\n",
				i+1,
				roleLabel,
				t.Records[i].Timestamp.Format("2006-01-02 15:04:05"),
				msg.Content,
			)
		}

		id := t.Identity()
		fmt.Printf("\nContinue this thread with:\n  turnchat chat --message-id %s --thread-id %s \"your message\"\n", id.MessageID, id.ThreadID)
		return nil
	},
}

// threadsDeleteCmd represents the threads delete command
var threadsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a thread",
	Long: `Delete a conversation thread permanently.

The ID can be a short ID (minimum 4 characters), full ID, or "latest" for the most recent thread.

Warning: This action cannot be undone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		t, err := history.FindByPrefix(cmd.Context(), store, args[0])
		if err != nil {
			return fmt.Errorf("finding thread: %w", err)
		}

		if !confirm("Are you sure you want to delete thread %s?", t.GetShortID()) {
			fmt.Println("Deletion cancelled.")
			return nil
		}

		if err := store.Delete(cmd.Context(), t.ID); err != nil {
			return fmt.Errorf("deleting thread: %w", err)
		}

		fmt.Printf("Thread %s deleted successfully.\n", t.GetShortID())
		return nil
	},
}

// threadsRenameCmd represents the threads rename command
var threadsRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a thread",
	Long: `Rename a conversation thread.

The ID can be a short ID (minimum 4 characters), full ID, or "latest" for the most recent thread.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		t, err := history.FindByPrefix(cmd.Context(), store, args[0])
		if err != nil {
			return fmt.Errorf("finding thread: %w", err)
		}

		if err := store.Rename(cmd.Context(), t.ID, args[1]); err != nil {
			return fmt.Errorf("renaming thread: %w", err)
		}

		fmt.Printf("Thread %s renamed to \"%s\".\n", t.GetShortID(), args[1])
		return nil
	},
}

// threadsClearCmd represents the threads clear command
var threadsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete old threads",
	Long: `Delete old conversation threads permanently.

By default, deletes threads not updated within the configured retention period
(history_retention_days, 30 days by default).
Use --before to specify a different date, or --all to delete all threads.

Warning: This action cannot be undone.

Examples:
  turnchat threads clear                      # Delete threads older than the retention period
  turnchat threads clear --before 2024-01-01  # Delete threads last updated before 2024-01-01
  turnchat threads clear --before 2024-12     # Delete threads last updated before 2024-12-01
  turnchat threads clear --all                # Delete all threads`,
	RunE: func(cmd *cobra.Command, args []string) error {
		beforeDateStr, _ := cmd.Flags().GetString("before")
		deleteAll, _ := cmd.Flags().GetBool("all")

		cfg, store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		threads, err := store.Threads(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing threads: %w", err)
		}
		if len(threads) == 0 {
			fmt.Println("No threads to delete.")
			return nil
		}

		var beforeDate time.Time
		if !deleteAll {
			if beforeDateStr != "" {
				beforeDate, err = parseDate(beforeDateStr)
				if err != nil {
					return fmt.Errorf("parsing date: %w", err)
				}
			} else {
				beforeDate = time.Now().AddDate(0, 0, -cfg.HistoryRetentionDays)
			}
		}

		toDelete := selectThreads(threads, beforeDate, deleteAll)
		if len(toDelete) == 0 {
			fmt.Printf("No threads found last updated before %s.\n", beforeDate.Format("2006-01-02"))
			return nil
		}

		var ok bool
		switch {
		case deleteAll:
			ok = confirm("Are you sure you want to delete all %d threads?", len(toDelete))
		case beforeDateStr != "":
			ok = confirm("Are you sure you want to delete %d threads last updated before %s?",
				len(toDelete), beforeDate.Format("2006-01-02"))
		default:
			ok = confirm("Are you sure you want to delete %d threads older than %d days (last updated before %s)?",
				len(toDelete), cfg.HistoryRetentionDays, beforeDate.Format("2006-01-02"))
		}
		if !ok {
			fmt.Println("Deletion cancelled.")
			return nil
		}

		deleted, failed := deleteThreads(cmd.Context(), store, toDelete)
		fmt.Printf("Successfully deleted %d threads", deleted)
		if failed > 0 {
			fmt.Printf(" (%d failed)", failed)
		}
		fmt.Println(".")
		return nil
	},
}

// selectThreads returns the threads last updated before the given date, or all of them
func selectThreads(threads []history.Thread, before time.Time, all bool) []history.Thread {
	if all {
		return threads
	}
	var selected []history.Thread
	for _, t := range threads {
		if t.UpdatedAt.Before(before) {
			selected = append(selected, t)
		}
	}
	return selected
}

// deleteThreads removes threads concurrently and reports how many succeeded and failed
func deleteThreads(ctx context.Context, store history.Store, threads []history.Thread) (deleted, failed int) {
	var ok, bad atomic.Int64
	p := pool.New().WithMaxGoroutines(4)
	for _, t := range threads {
		p.Go(func() {
			if err := store.Delete(ctx, t.ID); err != nil {
				logger.Warn().Err(err).Str("thread_id", t.ID).Msg("failed to delete thread")
				bad.Add(1)
				return
			}
			ok.Add(1)
		})
	}
	p.Wait()
	return int(ok.Load()), int(bad.Load())
}

// parseDate parses a date string in various formats and returns a time.Time
// Supported formats: YYYY-MM-DD, YYYY-MM, YYYY
func parseDate(dateStr string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, err := time.ParseInLocation(layout, dateStr, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD, YYYY-MM, or YYYY)", dateStr)
}

func init() {
	rootCmd.AddCommand(threadsCmd)
	threadsCmd.AddCommand(threadsListCmd)
	threadsCmd.AddCommand(threadsShowCmd)
	threadsCmd.AddCommand(threadsDeleteCmd)
	threadsCmd.AddCommand(threadsRenameCmd)
	threadsCmd.AddCommand(threadsClearCmd)

	threadsClearCmd.Flags().String("before", "", "Delete only threads last updated before this date (format: YYYY-MM-DD, YYYY-MM, or YYYY)")
	threadsClearCmd.Flags().Bool("all", false, "Delete all threads (overrides retention days setting)")
}
