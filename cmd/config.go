/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/longkey1/turnchat/internal/chat/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configFields = []string{
	"configfile", "model", "base_url", "token", "organization", "timeout_seconds",
	"retries", "retry_base_delay_ms", "retry_max_delay_ms", "language", "instruction",
	"knowledge_cutoff", "prompt", "prompt_dirs", "temperature", "max_tokens", "strip_prefix",
	"debug", "history_backend", "history_dir", "history_db", "history_retention_days",
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config [field]",
	Short: "Display current configuration",
	Long: `Display the current configuration values.
This command shows all configuration values loaded from the config file and environment variables.

If a field name is specified, only that field's value is displayed.

Examples:
  turnchat config                 # Show all configuration
  turnchat config model           # Show only model
  turnchat config token           # Show only the (masked) token
  turnchat config prompt_dirs     # Show only prompt directories`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}

		values := configValues(cfg)
		if len(args) > 0 {
			field := strings.ToLower(args[0])
			value, ok := values[field]
			if !ok {
				fmt.Fprintf(os.Stderr, "Unknown field: %s\n", args[0])
				fmt.Fprintf(os.Stderr, "Available fields: %s\n", strings.Join(configFields, ", "))
				os.Exit(1)
			}
			fmt.Println(value)
			return
		}

		for _, field := range configFields {
			fmt.Printf("%s: %s\n", field, values[field])
		}
	},
}

func configValues(cfg *config.Config) map[string]string {
	return map[string]string{
		"configfile":             viper.ConfigFileUsed(),
		"model":                  cfg.Model,
		"base_url":               cfg.BaseURL,
		"token":                  maskToken(cfg.Token),
		"organization":           cfg.Organization,
		"timeout_seconds":        fmt.Sprint(cfg.TimeoutSeconds),
		"retries":                fmt.Sprint(cfg.Retries),
		"retry_base_delay_ms":    fmt.Sprint(cfg.RetryBaseDelayMs),
		"retry_max_delay_ms":     fmt.Sprint(cfg.RetryMaxDelayMs),
		"language":               cfg.Language,
		"instruction":            cfg.Instruction,
		"knowledge_cutoff":       cfg.KnowledgeCutoff,
		"prompt":                 cfg.Prompt,
		"prompt_dirs":            strings.Join(cfg.PromptDirs, ","),
		"temperature":            fmt.Sprint(cfg.Temperature),
		"max_tokens":             fmt.Sprint(cfg.MaxTokens),
		"strip_prefix":           fmt.Sprintf("%q", cfg.StripPrefix),
		"debug":                  fmt.Sprint(cfg.Debug),
		"history_backend":        cfg.HistoryBackend,
		"history_dir":            cfg.HistoryDir,
		"history_db":             cfg.HistoryDB,
		"history_retention_days": fmt.Sprint(cfg.HistoryRetentionDays),
	}
}

// maskToken returns a masked version of the token for security
func maskToken(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "********"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
}
