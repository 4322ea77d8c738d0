package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/longkey1/turnchat/internal/chat"
	"github.com/longkey1/turnchat/internal/chat/config"
	"github.com/longkey1/turnchat/internal/chat/history"
	promptpkg "github.com/longkey1/turnchat/internal/chat/prompt"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local), false},
		{"2024-03", time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local), false},
		{"2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local), false},
		{"15/03/2024", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseDate(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "", maskToken(""))
	assert.Equal(t, "********", maskToken("short"))
	assert.Equal(t, "sk-a...wxyz", maskToken("sk-abcdefghijklmnopqrstuvwxyz"))
}

func TestApplyPrompt(t *testing.T) {
	model, lang := "gpt-4o-mini", "ja"
	cfg := config.NewDefaultConfig(t.TempDir())

	applyPrompt(cfg, nil)
	assert.Equal(t, "gpt-4.1", cfg.Model)

	applyPrompt(cfg, &promptpkg.Prompt{Model: &model, Language: &lang})
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "ja", cfg.Language)
	assert.Equal(t, "2024-06", cfg.KnowledgeCutoff)
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()

	cfg := &config.Config{HistoryBackend: config.HistoryBackendFile, HistoryDir: dir}
	store, err := newStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &history.FileStore{}, store)
	require.NoError(t, store.Close())

	cfg = &config.Config{HistoryBackend: config.HistoryBackendSQLite, HistoryDir: dir}
	store, err = newStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &history.SQLiteStore{}, store)
	require.NoError(t, store.Close())
	assert.FileExists(t, dir+"/history.db")

	_, err = newStore(&config.Config{HistoryBackend: "redis"})
	assert.Error(t, err)
}

func TestNewProviderRequiresToken(t *testing.T) {
	cfg := config.NewDefaultConfig(t.TempDir())
	cfg.Token = ""
	_, err := newProvider(cfg)
	assert.ErrorIs(t, err, config.ErrMissingToken)
}

func TestSelectAndDeleteThreads(t *testing.T) {
	ctx := context.Background()
	store := history.NewFileStore(t.TempDir())

	for _, id := range []string{"thread-0001", "thread-0002", "thread-0003"} {
		require.NoError(t, store.Record(ctx, id, "gpt-4.1",
			chat.Message{Role: chat.RoleUser, Content: "hi"},
			chat.Message{ID: "assistant-" + id, Role: chat.RoleAssistant, Content: "hello"},
		))
	}

	threads, err := store.Threads(ctx)
	require.NoError(t, err)
	require.Len(t, threads, 3)

	assert.Empty(t, selectThreads(threads, time.Now().Add(-time.Hour), false))
	assert.Len(t, selectThreads(threads, time.Now().Add(time.Hour), false), 3)
	assert.Len(t, selectThreads(threads, time.Time{}, true), 3)

	deleted, failed := deleteThreads(ctx, store, threads[:2])
	assert.Equal(t, 2, deleted)
	assert.Equal(t, 0, failed)

	remaining, err := store.Threads(ctx)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	deleted, failed = deleteThreads(ctx, store, threads[:1])
	assert.Equal(t, 0, deleted)
	assert.Equal(t, 1, failed)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, false)
	l.Debug().Msg("hidden")
	l.Warn().Str("path", "config.toml").Msg("error reading config file")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "error reading config file")

	buf.Reset()
	l = newLogger(&buf, true)
	l.Debug().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestInitConfigWithUnreadableFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(func() {
		viper.Reset()
		cfgFile = ""
	})

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("model = [unterminated"), 0644))
	cfgFile = path

	assert.NotPanics(t, initConfig)
	assert.Equal(t, path, viper.ConfigFileUsed())
	assert.Equal(t, "gpt-4.1", viper.GetString("model"))
}

func TestBootstrap(t *testing.T) {
	tests := []struct {
		backend string
		wantDB  bool
		wantErr bool
	}{
		{config.HistoryBackendFile, false, false},
		{config.HistoryBackendSQLite, true, false},
		{"redis", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			dir := t.TempDir()
			configFile := filepath.Join(dir, "config.toml")

			cfg, err := bootstrap(configFile, tt.backend)
			if tt.wantErr {
				assert.Error(t, err)
				assert.NoFileExists(t, configFile)
				return
			}
			require.NoError(t, err)

			assert.DirExists(t, filepath.Join(dir, "prompts"))
			assert.DirExists(t, filepath.Join(dir, "threads"))
			if tt.wantDB {
				assert.FileExists(t, filepath.Join(dir, "threads", "history.db"))
			}

			var written config.Config
			_, err = toml.DecodeFile(configFile, &written)
			require.NoError(t, err)
			assert.Equal(t, tt.backend, written.HistoryBackend)
			assert.Equal(t, cfg.HistoryDir, written.HistoryDir)
			assert.Equal(t, "$OPENAI_API_KEY", written.Token)

			_, err = bootstrap(configFile, tt.backend)
			assert.ErrorContains(t, err, "already exists")
		})
	}
}
