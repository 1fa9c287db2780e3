package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Settings holds ambient tool preferences. These come from an optional
// config file and DSQLCHECK_* environment overrides; they never satisfy
// or replace the four required connection variables.
type Settings struct {
	LogFile string          `mapstructure:"log_file" yaml:"log_file"`
	NoColor bool            `mapstructure:"no_color" yaml:"no_color"`
	Debug   bool            `mapstructure:"debug" yaml:"debug"`
	History HistorySettings `mapstructure:"history" yaml:"history"`
}

// HistorySettings controls best-effort recording of check outcomes.
type HistorySettings struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" yaml:"path"`
}

// ConfigDir returns the tool's config directory (~/.config/dsqlcheck),
// creating it if needed.
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	dir := filepath.Join(homeDir, ".config", "dsqlcheck")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// LoadSettings loads ambient settings from ~/.config/dsqlcheck/config.yaml
// if present, with defaults applied and DSQLCHECK_* environment overrides.
// A missing config file is not an error.
func LoadSettings() (*Settings, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if dir, err := ConfigDir(); err == nil {
		v.AddConfigPath(dir)
		applySettingsDefaults(v, dir)
	} else {
		applySettingsDefaults(v, "")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("DSQLCHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &settings, nil
}

// DefaultSettings returns the settings written by "config init".
func DefaultSettings() *Settings {
	dir, _ := ConfigDir()
	return &Settings{
		LogFile: filepath.Join(dir, "dsqlcheck.log"),
		History: HistorySettings{
			Enabled: true,
			Path:    filepath.Join(dir, "history.db"),
		},
	}
}

// WriteDefaultSettings writes the default settings file and returns its
// path. It refuses to overwrite an existing file.
func WriteDefaultSettings() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "config.yaml")

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	data, err := yaml.Marshal(DefaultSettings())
	if err != nil {
		return "", fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

func applySettingsDefaults(v *viper.Viper, dir string) {
	v.SetDefault("log_file", filepath.Join(dir, "dsqlcheck.log"))
	v.SetDefault("no_color", false)
	v.SetDefault("debug", false)
	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", filepath.Join(dir, "history.db"))
}
