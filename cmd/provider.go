/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/longkey1/turnchat/internal/chat/config"
	"github.com/longkey1/turnchat/internal/chat/history"
	"github.com/longkey1/turnchat/internal/openai"
)

// newProvider creates the completion provider for the configuration
func newProvider(cfg *config.Config) (*openai.Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return openai.NewProvider(cfg)
}

// newStore opens the history store selected by the configuration
func newStore(cfg *config.Config) (history.Store, error) {
	switch cfg.HistoryBackend {
	case config.HistoryBackendFile, "":
		return history.NewFileStore(cfg.HistoryDir), nil
	case config.HistoryBackendSQLite:
		path := cfg.HistoryDB
		if path == "" {
			path = filepath.Join(cfg.HistoryDir, "history.db")
		}
		return history.OpenSQLite(path)
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", cfg.HistoryBackend)
	}
}
