package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ohmlnz/denopack/internal/config"
	"github.com/ohmlnz/denopack/internal/exitcode"
	"github.com/ohmlnz/denopack/pkg/api"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configName = ".denopack"
	configType = "yaml"
	envPrefix  = "DENOPACK"
)

// Config is what the "transform" command runs with. Values come from flags,
// then "DENOPACK_*" environment variables, then the config file.
type Config struct {
	Include      []string `mapstructure:"include"`
	Exclude      []string `mapstructure:"exclude"`
	WarnOnError  bool     `mapstructure:"warn_on_error"`
	OutDir       string   `mapstructure:"outdir"`
	SourceMap    string   `mapstructure:"sourcemap"`
	Jobs         int      `mapstructure:"jobs"`
	DirCacheSize int      `mapstructure:"dir_cache_size"`
	LogLevel     string   `mapstructure:"log_level"`
	Color        string   `mapstructure:"color"`
}

// Flag names differ from config keys where a dash reads better on the
// command line.
var flagKeys = map[string]string{
	"include":        "include",
	"exclude":        "exclude",
	"warn-on-error":  "warn_on_error",
	"outdir":         "outdir",
	"sourcemap":      "sourcemap",
	"jobs":           "jobs",
	"dir-cache-size": "dir_cache_size",
	"log-level":      "log_level",
	"color":          "color",
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("outdir", "out")
	v.SetDefault("sourcemap", "linked")
	v.SetDefault("jobs", 8)
	v.SetDefault("dir_cache_size", 1024)
	v.SetDefault("log_level", "warning")
	v.SetDefault("color", "auto")
}

func loadConfig(cmd *cobra.Command, configPath string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, exitcode.Set(fmt.Errorf("read config: %w", err), exitcode.InvalidConfig)
		}
	}

	for name, key := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, exitcode.Set(fmt.Errorf("bind flag %q: %w", name, err), exitcode.InvalidConfig)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, exitcode.Set(fmt.Errorf("unmarshal config: %w", err), exitcode.InvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, exitcode.Set(fmt.Errorf("validate config: %w", err), exitcode.InvalidConfig)
	}
	return &cfg, nil
}

func (cfg *Config) Validate() error {
	if _, err := config.ParseSourceMap(cfg.SourceMap); err != nil {
		return err
	}
	if _, err := cfg.apiLogLevel(); err != nil {
		return err
	}
	if _, err := cfg.apiColor(); err != nil {
		return err
	}
	if cfg.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", cfg.Jobs)
	}
	if cfg.OutDir == "" {
		return errors.New("outdir must not be empty")
	}
	return nil
}

func (cfg *Config) apiLogLevel() (api.LogLevel, error) {
	switch cfg.LogLevel {
	case "debug":
		return api.LogLevelDebug, nil
	case "info":
		return api.LogLevelInfo, nil
	case "warning":
		return api.LogLevelWarning, nil
	case "error":
		return api.LogLevelError, nil
	case "silent":
		return api.LogLevelSilent, nil
	}
	return 0, fmt.Errorf("invalid log level %q (valid: debug, info, warning, error, silent)", cfg.LogLevel)
}

func (cfg *Config) apiColor() (api.StderrColor, error) {
	switch cfg.Color {
	case "auto":
		return api.ColorIfTerminal, nil
	case "never":
		return api.ColorNever, nil
	case "always":
		return api.ColorAlways, nil
	}
	return 0, fmt.Errorf("invalid color %q (valid: auto, never, always)", cfg.Color)
}
