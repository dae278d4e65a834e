// Package config loads the service configuration. The loaded Config is
// an immutable snapshot handed to the analyzer and server at
// construction; nothing reads configuration from ambient process state
// after startup, so concurrent requests with different overrides cannot
// interfere.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultExcludePatterns is the static exclude-pattern policy. Requests
// may append to it, never replace it.
var DefaultExcludePatterns = []string{
	// dependency and build output trees
	"node_modules/*",
	"vendor/*",
	"dist/*",
	"build/*",
	"target/*",
	"out/*",
	"bin/*",
	"obj/*",
	"coverage/*",
	"__pycache__/*",
	".venv/*",
	"venv/*",
	".tox/*",
	".idea/*",
	".vscode/*",
	// generated and minified artifacts
	"*.min.js",
	"*.min.css",
	"*.map",
	"*.pyc",
	"*.pyo",
	"*.class",
	"*.o",
	"*.a",
	"*.so",
	"*.dylib",
	"*.dll",
	"*.exe",
	// archives and media
	"*.zip",
	"*.gz",
	"*.tar",
	"*.jar",
	"*.png",
	"*.jpg",
	"*.jpeg",
	"*.gif",
	"*.ico",
	"*.pdf",
	// scratch files
	"*.log",
	"*.tmp",
	"*.swp",
	"*.bak",
	".DS_Store",
}

// Registry configures outbound registration with the agent orchestrator.
// An empty URL disables registration.
type Registry struct {
	URL              string
	AdvertiseAddress string
}

// Config is the full service configuration.
type Config struct {
	// MaxFiles caps the number of included entries per analysis.
	MaxFiles int
	// ExcludePatterns is the static policy list (DefaultExcludePatterns
	// unless overridden in the config file).
	ExcludePatterns []string
	// MaxConcurrent bounds how many analyses run in parallel.
	MaxConcurrent int
	// RequestTimeout bounds each analysis; expiry behaves like
	// cancellation.
	RequestTimeout time.Duration
	// DBPath is the directory holding the analysis history database.
	// Empty means ~/.repolens.
	DBPath string
	// HistoryRetention is how long recorded runs are kept; older runs
	// are pruned at server startup. Zero disables pruning.
	HistoryRetention time.Duration
	Registry         Registry
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MaxFiles:         10000,
		ExcludePatterns:  append([]string(nil), DefaultExcludePatterns...),
		MaxConcurrent:    4,
		RequestTimeout:   2 * time.Minute,
		DBPath:           "",
		HistoryRetention: 30 * 24 * time.Hour,
	}
}

// Load reads configuration from an optional file plus REPOLENS_* env
// vars, layered over Default.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	def := Default()

	v.SetDefault("max_files", def.MaxFiles)
	v.SetDefault("exclude_patterns", def.ExcludePatterns)
	v.SetDefault("max_concurrent", def.MaxConcurrent)
	v.SetDefault("request_timeout", def.RequestTimeout.String())
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("history_retention", def.HistoryRetention.String())
	v.SetDefault("registry.url", "")
	v.SetDefault("registry.advertise_address", "")

	v.SetEnvPrefix("REPOLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		v.SetConfigName("repolens")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.repolens")
		if err := v.ReadInConfig(); err != nil {
			// A missing config file is fine; a malformed one is not.
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	timeout, err := time.ParseDuration(v.GetString("request_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid request_timeout: %w", err)
	}
	retention, err := time.ParseDuration(v.GetString("history_retention"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid history_retention: %w", err)
	}

	cfg := Config{
		MaxFiles:         v.GetInt("max_files"),
		ExcludePatterns:  v.GetStringSlice("exclude_patterns"),
		MaxConcurrent:    v.GetInt("max_concurrent"),
		RequestTimeout:   timeout,
		DBPath:           v.GetString("db_path"),
		HistoryRetention: retention,
		Registry: Registry{
			URL:              v.GetString("registry.url"),
			AdvertiseAddress: v.GetString("registry.advertise_address"),
		},
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive, got %d", c.MaxFiles)
	}
	if c.MaxConcurrent <= 0 {
		return fmt.Errorf("max_concurrent must be positive, got %d", c.MaxConcurrent)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.HistoryRetention < 0 {
		return fmt.Errorf("history_retention must not be negative, got %s", c.HistoryRetention)
	}
	return nil
}
