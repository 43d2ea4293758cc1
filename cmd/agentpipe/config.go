package main

import (
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Default values from environment variables, themselves seeded from the
// optional config file so precedence is flag > env > file > built-in
var (
	fileDefaults = loadFileConfig()

	defaultProvider = getEnvOrDefault("AGENTPIPE_PROVIDER", fileDefaults.Provider)
	defaultModel    = getEnvOrDefault("AGENTPIPE_MODEL", fileDefaults.Model)
	defaultBaseURL  = getEnvOrDefault("AGENTPIPE_BASEURL", fileDefaults.BaseURL)
	defaultFormat   = getEnvOrDefault("AGENTPIPE_FORMAT", fileDefaults.Format)
	defaultTimeout  = getEnvDuration("AGENTPIPE_TIMEOUT", fileDefaults.Timeout)
)

// FileConfig is the optional ~/.agentpipe/config.yaml
type FileConfig struct {
	Provider string        `yaml:"provider"`
	Model    string        `yaml:"model"`
	BaseURL  string        `yaml:"baseurl"`
	Format   string        `yaml:"format"`
	Timeout  time.Duration `yaml:"timeout"`
}

// loadFileConfig reads the config file and fills in built-in defaults.
// A missing or malformed file is not an error; built-ins apply.
func loadFileConfig() FileConfig {
	builtin := FileConfig{
		Provider: "claude",
		Format:   "text",
		Timeout:  10 * time.Minute,
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return builtin
	}

	data, err := os.ReadFile(filepath.Join(homeDir, ".agentpipe", "config.yaml"))
	if err != nil {
		return builtin
	}

	var loaded FileConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return builtin
	}

	// Fill zero fields from built-ins
	if err := mergo.Merge(&loaded, builtin); err != nil {
		return builtin
	}
	return loaded
}

// Environment variable parsing functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseConfig extracts configuration from command-line flags
func parseConfig(cmd *cli.Command) *Config {
	return &Config{
		// Backend configuration
		Provider: cmd.String("provider"),
		Model:    cmd.String("model"),
		BaseURL:  cmd.String("baseurl"),
		WorkDir:  cmd.String("cwd"),
		Env:      cmd.StringSlice("env"),
		Timeout:  cmd.Duration("timeout"),

		// Context configuration
		ContextID:      cmd.String("context"),
		UseLastContext: cmd.Bool("last"),
		ResetContext:   cmd.Bool("reset"),
		ListContexts:   cmd.Bool("list"),
		DeleteContext:  cmd.String("delete"),

		// Input/Output configuration
		Prompt:      cmd.String("prompt"),
		Format:      cmd.String("format"),
		Strict:      cmd.Bool("strict"),
		ReplayStdin: cmd.Bool("stdin-chunks"),
		Quiet:       cmd.Bool("quiet"),
		Debug:       cmd.Bool("debug"),
	}
}
