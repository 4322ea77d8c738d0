/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/longkey1/turnchat/internal/chat/config"
	"github.com/spf13/cobra"
)

var initHistoryBackend string

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration file and history store",
	Long: `Initialize the configuration file with default settings, together with the
prompts directory and the history store recorded turns are kept in.

The config file will be created at $HOME/.config/turnchat/config.toml by default.
You can specify a different location using the --config option.

History backends:
  file    one JSON file per thread in <config dir>/threads (default)
  sqlite  a single database at <config dir>/threads/history.db`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile := cfgFile
		if configFile == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("failed to get home directory: %w", err)
			}
			configFile = filepath.Join(home, ".config", "turnchat", "config.toml")
		}

		cfg, err := bootstrap(configFile, initHistoryBackend)
		if err != nil {
			return err
		}

		fmt.Printf("Configuration file created at: %s\n", configFile)
		fmt.Printf("Prompts directory created at: %s\n", cfg.PromptDirs[0])
		switch cfg.HistoryBackend {
		case config.HistoryBackendSQLite:
			fmt.Printf("History database created at: %s\n", cfg.HistoryDB)
		default:
			fmt.Printf("History directory created at: %s\n", cfg.HistoryDir)
		}
		fmt.Println("\nSet your API key in OPENAI_API_KEY (or token in the config file), then run:")
		fmt.Println("  turnchat chat \"your message\"")
		return nil
	},
}

// bootstrap writes a default configuration to configFile and prepares the
// prompts directory and the history store next to it.
func bootstrap(configFile, backend string) (*config.Config, error) {
	if _, err := os.Stat(configFile); err == nil {
		return nil, fmt.Errorf("config file already exists at: %s", configFile)
	}

	configDir := filepath.Dir(configFile)
	cfg := config.NewDefaultConfig(filepath.Join(configDir, "prompts"))
	cfg.HistoryBackend = backend
	cfg.HistoryDir = filepath.Join(configDir, "threads")
	if backend == config.HistoryBackendSQLite {
		cfg.HistoryDB = filepath.Join(cfg.HistoryDir, "history.db")
	}
	if err := cfg.Validate(); err != nil && !errors.Is(err, config.ErrMissingToken) {
		return nil, err
	}

	for _, dir := range []string{configDir, cfg.PromptDirs[0], cfg.HistoryDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing history store: %w", err)
	}
	store.Close()

	f, err := os.Create(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initHistoryBackend, "history-backend", config.HistoryBackendFile, "History backend to configure (file or sqlite)")
}
