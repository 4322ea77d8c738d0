package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/longkey1/turnchat/internal/chat"
	"github.com/spf13/viper"
)

const (
	HistoryBackendFile   = "file"
	HistoryBackendSQLite = "sqlite"
)

// ErrMissingToken is returned when no API credential is configured.
var ErrMissingToken = errors.New("token is not configured. Set it in config file (token) or environment variable (TURNCHAT_TOKEN)")

// Config holds the configuration for a chat turn
type Config struct {
	Model                string   `toml:"model" mapstructure:"model"`
	BaseURL              string   `toml:"base_url" mapstructure:"base_url"`
	Token                string   `toml:"token" mapstructure:"token"`
	Organization         string   `toml:"organization" mapstructure:"organization"`
	TimeoutSeconds       int      `toml:"timeout_seconds" mapstructure:"timeout_seconds"`
	Retries              int      `toml:"retries" mapstructure:"retries"`                         // additional attempts after the first failure
	RetryBaseDelayMs     int      `toml:"retry_base_delay_ms" mapstructure:"retry_base_delay_ms"` // first backoff, doubled per retry
	RetryMaxDelayMs      int      `toml:"retry_max_delay_ms" mapstructure:"retry_max_delay_ms"`
	Language             string   `toml:"language" mapstructure:"language"`
	Instruction          string   `toml:"instruction" mapstructure:"instruction"`
	KnowledgeCutoff      string   `toml:"knowledge_cutoff" mapstructure:"knowledge_cutoff"`
	Prompt               string   `toml:"prompt" mapstructure:"prompt"` // prompt template overriding instruction
	PromptDirs           []string `toml:"prompt_dirs" mapstructure:"prompt_dirs"`
	Temperature          float64  `toml:"temperature" mapstructure:"temperature"`
	MaxTokens            int      `toml:"max_tokens" mapstructure:"max_tokens"`
	StripPrefix          string   `toml:"strip_prefix" mapstructure:"strip_prefix"` // empty disables stripping
	Debug                bool     `toml:"debug" mapstructure:"debug"`
	HistoryBackend       string   `toml:"history_backend" mapstructure:"history_backend"` // "file" or "sqlite"
	HistoryDir           string   `toml:"history_dir" mapstructure:"history_dir"`
	HistoryDB            string   `toml:"history_db" mapstructure:"history_db"`
	HistoryRetentionDays int      `toml:"history_retention_days" mapstructure:"history_retention_days"`
}

// NewDefaultConfig returns a new Config with default values
func NewDefaultConfig(promptDir string) *Config {
	return &Config{
		Model:                "gpt-4.1",
		BaseURL:              "https://api.openai.com/v1",
		Token:                "$OPENAI_API_KEY", // Default to env var
		Organization:         "$OPENAI_ORG_ID",
		TimeoutSeconds:       60,
		Retries:              chat.DefaultRetries,
		RetryBaseDelayMs:     int(chat.DefaultRetryBaseDelay / time.Millisecond),
		RetryMaxDelayMs:      int(chat.DefaultRetryMaxDelay / time.Millisecond),
		Language:             chat.DefaultLanguage,
		Instruction:          "You are a helpful assistant. Answer concisely and accurately.",
		KnowledgeCutoff:      "2024-06",
		PromptDirs:           []string{promptDir},
		Temperature:          0.7,
		MaxTokens:            1024,
		StripPrefix:          chat.DefaultStripPrefix,
		HistoryBackend:       HistoryBackendFile,
		HistoryRetentionDays: 30,
	}
}

// LoadConfig loads configuration from viper
func LoadConfig() (*Config, error) {
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	// Expand $VAR references in credentials and endpoints
	for _, field := range []*string{&config.Token, &config.Organization, &config.BaseURL} {
		expanded, err := expandEnvVar(*field)
		if err != nil {
			return nil, err
		}
		*field = expanded
	}

	// Convert prompt directories to absolute paths
	for i, promptDir := range config.PromptDirs {
		absPath, err := ResolvePath(promptDir)
		if err != nil {
			return nil, fmt.Errorf("error resolving prompt directory path '%s': %v", promptDir, err)
		}
		config.PromptDirs[i] = absPath
	}

	if config.HistoryDir == "" {
		dir, err := DefaultHistoryDir()
		if err != nil {
			return nil, err
		}
		config.HistoryDir = dir
	}
	historyDir, err := ResolvePath(config.HistoryDir)
	if err != nil {
		return nil, fmt.Errorf("error resolving history directory path '%s': %v", config.HistoryDir, err)
	}
	config.HistoryDir = historyDir

	if config.HistoryDB != "" {
		historyDB, err := ResolvePath(config.HistoryDB)
		if err != nil {
			return nil, fmt.Errorf("error resolving history database path '%s': %v", config.HistoryDB, err)
		}
		config.HistoryDB = historyDB
	}

	return config, nil
}

// Validate checks the values that cannot be recovered from at call time.
func (c *Config) Validate() error {
	if c.Token == "" {
		return ErrMissingToken
	}
	if c.Model == "" {
		return fmt.Errorf("model is not configured. Set it in config file (model) or environment variable (TURNCHAT_MODEL)")
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must not be negative (got %d)", c.Retries)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2 (got %v)", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative (got %d)", c.MaxTokens)
	}
	switch c.HistoryBackend {
	case HistoryBackendFile, HistoryBackendSQLite:
	default:
		return fmt.Errorf("unsupported history backend: %s (expected %s or %s)", c.HistoryBackend, HistoryBackendFile, HistoryBackendSQLite)
	}
	return nil
}

// GetToken returns the API credential
func (c *Config) GetToken() string {
	return c.Token
}

// GetOrganization returns the optional organization identifier
func (c *Config) GetOrganization() string {
	return c.Organization
}

// GetBaseURL returns the API base URL
func (c *Config) GetBaseURL() string {
	return c.BaseURL
}

// GetTimeout returns the per-request timeout enforced by the transport
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryPolicy returns the retry policy for completion calls
func (c *Config) RetryPolicy() chat.RetryPolicy {
	return chat.RetryPolicy{
		Retries:   c.Retries,
		BaseDelay: time.Duration(c.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:  time.Duration(c.RetryMaxDelayMs) * time.Millisecond,
	}
}

// ChatOptions returns the options of a Chatter built from this configuration.
// instruction replaces the configured base instruction when not empty.
func (c *Config) ChatOptions(instruction string) chat.Options {
	if instruction == "" {
		instruction = c.Instruction
	}
	return chat.Options{
		Instruction:     instruction,
		KnowledgeCutoff: c.KnowledgeCutoff,
		Language:        c.Language,
		Params: chat.Params{
			Model:       c.Model,
			Temperature: c.Temperature,
			MaxTokens:   c.MaxTokens,
		},
		Retry:       c.RetryPolicy(),
		StripPrefix: c.StripPrefix,
		Debug:       c.Debug,
	}
}
