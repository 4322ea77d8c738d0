/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/longkey1/turnchat/internal/chat/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	logger  = zerolog.Nop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "turnchat",
	Short: "A CLI tool that drives single chat turns against the OpenAI API",
	Long: `turnchat sends one message per invocation to the OpenAI chat completions API
and prints the reply together with a continuation handle (message and thread ID).
Passing the handle back on the next invocation continues the conversation.

You can configure the tool using a TOML configuration file.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/turnchat/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Replaced by initLogger once the debug setting is known
	logger = newLogger(os.Stderr, false)

	viper.SetEnvPrefix("TURNCHAT")
	viper.AutomaticEnv()

	home, err := os.UserHomeDir()
	cobra.CheckErr(err)
	userConfigDir := filepath.Join(home, ".config", "turnchat")

	// Later directories take precedence over earlier ones
	defaultPromptDirs := []string{
		"/usr/share/turnchat/prompts",
		"/usr/local/share/turnchat/prompts",
		filepath.Join(userConfigDir, "prompts"),
	}
	defaults := config.NewDefaultConfig(filepath.Join(userConfigDir, "prompts"))

	viper.SetDefault("model", defaults.Model)
	viper.SetDefault("base_url", defaults.BaseURL)
	viper.SetDefault("token", defaults.Token)
	viper.SetDefault("organization", defaults.Organization)
	viper.SetDefault("timeout_seconds", defaults.TimeoutSeconds)
	viper.SetDefault("retries", defaults.Retries)
	viper.SetDefault("retry_base_delay_ms", defaults.RetryBaseDelayMs)
	viper.SetDefault("retry_max_delay_ms", defaults.RetryMaxDelayMs)
	viper.SetDefault("language", defaults.Language)
	viper.SetDefault("instruction", defaults.Instruction)
	viper.SetDefault("knowledge_cutoff", defaults.KnowledgeCutoff)
	viper.SetDefault("prompt", defaults.Prompt)
	viper.SetDefault("prompt_dirs", defaultPromptDirs)
	viper.SetDefault("temperature", defaults.Temperature)
	viper.SetDefault("max_tokens", defaults.MaxTokens)
	viper.SetDefault("strip_prefix", defaults.StripPrefix)
	viper.SetDefault("debug", defaults.Debug)
	viper.SetDefault("history_backend", defaults.HistoryBackend)
	viper.SetDefault("history_dir", defaults.HistoryDir)
	viper.SetDefault("history_db", defaults.HistoryDB)
	viper.SetDefault("history_retention_days", defaults.HistoryRetentionDays)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			logger.Warn().Err(err).Str("path", cfgFile).Msg("error reading config file")
		}
		return
	}

	// System-wide config first, user config merged on top
	for _, path := range []string{"/etc/turnchat", "/usr/local/etc/turnchat"} {
		viper.AddConfigPath(path)
	}
	viper.SetConfigType("toml")
	viper.SetConfigName("config")

	systemConfigLoaded := viper.ReadInConfig() == nil

	viper.AddConfigPath(userConfigDir)
	if systemConfigLoaded {
		err = viper.MergeInConfig()
	} else {
		err = viper.ReadInConfig()
	}
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.Warn().Err(err).Msg("error reading config file")
		}
	}
}

func initLogger() {
	logger = newLogger(os.Stderr, verbose || viper.GetBool("debug"))
	logger.Debug().
		Str("config_file", viper.ConfigFileUsed()).
		Str("model", viper.GetString("model")).
		Str("base_url", viper.GetString("base_url")).
		Strs("prompt_dirs", viper.GetStringSlice("prompt_dirs")).
		Str("history_backend", viper.GetString("history_backend")).
		Msg("configuration loaded")
}

func newLogger(out io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
