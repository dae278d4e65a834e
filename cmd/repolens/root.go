package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/repolens/repolens-mcp/internal/config"
	"github.com/repolens/repolens-mcp/internal/storage"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "repolens",
	Short: "Repository analysis over MCP",
	Long: `RepoLens analyzes git repositories: per-extension file metrics,
directory structure, and change statistics between revisions.

Run "repolens serve" to expose the analysis tools to agent clients over
MCP stdio, or "repolens analyze" for a one-shot analysis in the terminal.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./repolens.yaml or ~/.repolens/repolens.yaml)")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"RepoLens %s (built %s, sqlite driver %s/%s)\n",
		version, buildTime, storage.DriverName, storage.BuildMode,
	))
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// newLogger logs to stderr; stdout is reserved for MCP protocol traffic
// and rendered analysis output.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("REPOLENS_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading configuration: %w", err)
	}
	return cfg, nil
}
