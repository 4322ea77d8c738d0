package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandEnvVar(t *testing.T) {
	t.Setenv("TURNCHAT_TEST_TOKEN", "sk-test")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain value", input: "sk-plain", want: "sk-plain"},
		{name: "dollar form", input: "$TURNCHAT_TEST_TOKEN", want: "sk-test"},
		{name: "brace form", input: "${TURNCHAT_TEST_TOKEN}", want: "sk-test"},
		{name: "unset variable", input: "$TURNCHAT_TEST_UNSET", want: ""},
		{name: "unterminated brace", input: "${TURNCHAT_TEST_TOKEN", wantErr: true},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVar(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func validConfig() *Config {
	cfg := NewDefaultConfig("/tmp/prompts")
	cfg.Token = "sk-test"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		wantIs  error
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "sqlite backend", mutate: func(c *Config) { c.HistoryBackend = HistoryBackendSQLite }},
		{name: "missing token", mutate: func(c *Config) { c.Token = "" }, wantErr: true, wantIs: ErrMissingToken},
		{name: "missing model", mutate: func(c *Config) { c.Model = "" }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.Retries = -1 }, wantErr: true},
		{name: "temperature too high", mutate: func(c *Config) { c.Temperature = 2.5 }, wantErr: true},
		{name: "negative max tokens", mutate: func(c *Config) { c.MaxTokens = -1 }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.HistoryBackend = "redis" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.wantIs != nil {
				assert.True(t, errors.Is(err, tt.wantIs), "Validate() error = %v, want %v", err, tt.wantIs)
			}
		})
	}
}

func TestChatOptions(t *testing.T) {
	cfg := validConfig()
	cfg.Retries = 2
	cfg.RetryBaseDelayMs = 100
	cfg.RetryMaxDelayMs = 400

	opts := cfg.ChatOptions("")
	assert.Equal(t, cfg.Instruction, opts.Instruction)
	assert.Equal(t, "gpt-4.1", opts.Params.Model)
	assert.Equal(t, 0.7, opts.Params.Temperature)
	assert.Equal(t, 1024, opts.Params.MaxTokens)
	assert.False(t, opts.Params.Stream)
	assert.Equal(t, 2, opts.Retry.Retries)
	assert.Equal(t, 100*time.Millisecond, opts.Retry.BaseDelay)
	assert.Equal(t, 400*time.Millisecond, opts.Retry.MaxDelay)
	assert.Equal(t, "with ", opts.StripPrefix)

	assert.Equal(t, "from template", cfg.ChatOptions("from template").Instruction)
}

func TestLoadConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("TURNCHAT_TEST_KEY", "sk-from-env")

	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.toml")
	require.NoError(t, writeFile(cfgFile, `
model = "gpt-4o"
token = "$TURNCHAT_TEST_KEY"
prompt_dirs = ["prompts"]
history_db = "threads.db"
retries = 5
`))
	viper.SetConfigFile(cfgFile)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, "sk-from-env", cfg.Token)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, []string{filepath.Join(dir, "prompts")}, cfg.PromptDirs)
	assert.Equal(t, filepath.Join(dir, "threads"), cfg.HistoryDir)
	assert.Equal(t, filepath.Join(dir, "threads.db"), cfg.HistoryDB)
}

func TestResolvePathAbsolute(t *testing.T) {
	got, err := ResolvePath("/var/lib/turnchat")
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/turnchat", got)
}
