package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// expandEnvVar expands environment variable references in the given value
// Supports both $VAR and ${VAR} syntax
// Returns the expanded value. If the environment variable is not set, returns empty string.
func expandEnvVar(value string) (string, error) {
	if !strings.HasPrefix(value, "$") {
		return value, nil
	}

	var envVarName string
	if strings.HasPrefix(value, "${") {
		if !strings.HasSuffix(value, "}") {
			return "", fmt.Errorf("unterminated environment variable reference: %s", value)
		}
		envVarName = value[2 : len(value)-1]
	} else {
		envVarName = strings.TrimPrefix(value, "$")
	}

	return os.Getenv(envVarName), nil
}

// configDir returns the absolute directory of the config file in use, or "" when none is used
func configDir() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		return "", nil
	}

	dir := filepath.Dir(configFile)
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting current working directory: %v", err)
		}
		dir = filepath.Join(cwd, dir)
	}
	return dir, nil
}

// ResolvePath converts a relative path to absolute path if needed.
// Relative paths are resolved against the config file directory, or the
// current working directory when no config file is used.
func ResolvePath(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("error getting user home directory: %v", err)
		}
		return filepath.Join(home, path[2:]), nil
	}

	base, err := configDir()
	if err != nil {
		return "", err
	}
	if base == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("error getting current working directory: %v", err)
		}
		base = cwd
	}
	return filepath.Join(base, path), nil
}

// DefaultHistoryDir returns the directory where threads are stored when none is configured.
// If a config file is used, threads are stored next to it.
// Otherwise, defaults to $HOME/.config/turnchat/threads
func DefaultHistoryDir() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	if dir != "" {
		return filepath.Join(dir, "threads"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "turnchat", "threads"), nil
}
