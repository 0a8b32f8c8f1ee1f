// Package config loads dockship configuration from an optional dockship.yaml
// file and DOCKSHIP_* environment variables, with sensible defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the pipeline. It is passed explicitly
// into stages; nothing reads it ambiently.
type Config struct {
	Logging  LoggingConfig
	Pipeline PipelineConfig
	Tool     ToolConfig
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	// Verbosity is one of quiet, minimal, normal, detailed, diagnostic.
	Verbosity string
}

// PipelineConfig holds stage enablement defaults.
type PipelineConfig struct {
	UseCache        bool
	Generate        bool
	Build           bool
	EmitIgnoreFile  bool
	ExcludePatterns []string
	RecordPath      string
	DockerfilePath  string
}

// ToolConfig describes the external container build tool.
type ToolConfig struct {
	Name    string
	Args    string
	Timeout time.Duration
}

// Load loads configuration from config files and environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("dockship")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	// Config file is optional.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("dockship")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Logging: LoggingConfig{
			Verbosity: v.GetString("logging.verbosity"),
		},
		Pipeline: PipelineConfig{
			UseCache:        v.GetBool("pipeline.use_cache"),
			Generate:        v.GetBool("pipeline.generate"),
			Build:           v.GetBool("pipeline.build"),
			EmitIgnoreFile:  v.GetBool("pipeline.emit_ignore_file"),
			ExcludePatterns: v.GetStringSlice("pipeline.exclude_patterns"),
			RecordPath:      v.GetString("pipeline.record_path"),
			DockerfilePath:  v.GetString("pipeline.dockerfile_path"),
		},
		Tool: ToolConfig{
			Name:    v.GetString("tool.name"),
			Args:    v.GetString("tool.args"),
			Timeout: v.GetDuration("tool.timeout"),
		},
	}, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.verbosity", "normal")

	v.SetDefault("pipeline.use_cache", true)
	v.SetDefault("pipeline.generate", true)
	v.SetDefault("pipeline.build", true)
	v.SetDefault("pipeline.emit_ignore_file", true)
	v.SetDefault("pipeline.exclude_patterns", []string{})
	v.SetDefault("pipeline.record_path", "")
	v.SetDefault("pipeline.dockerfile_path", "")

	v.SetDefault("tool.name", "docker")
	v.SetDefault("tool.args", "")
	v.SetDefault("tool.timeout", 30*time.Minute)
}
