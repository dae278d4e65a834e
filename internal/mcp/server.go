package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/repolens/repolens-mcp/internal/analysis"
	"github.com/repolens/repolens-mcp/internal/config"
	"github.com/repolens/repolens-mcp/internal/gitrepo"
	"github.com/repolens/repolens-mcp/internal/storage"
	"github.com/repolens/repolens-mcp/internal/walker"
)

const (
	// ServerName is the MCP server name
	ServerName = "repolens-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	analyzer *analysis.Analyzer
	store    storage.Store
	log      *slog.Logger
}

// openRepository adapts gitrepo.Open to the analyzer's opener contract.
func openRepository(path string) (walker.Source, error) {
	return gitrepo.Open(path)
}

// historyPath resolves the run-history database file, creating its
// directory when needed.
func historyPath(dbPath string) (string, error) {
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".repolens")
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return filepath.Join(dbPath, "history.db"), nil
}

// NewServer creates a new MCP server instance
func NewServer(cfg config.Config, log *slog.Logger) (*Server, error) {
	dbFile, err := historyPath(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStore(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Retention is enforced once per server start; a failed prune is
	// logged, not fatal.
	if cfg.HistoryRetention > 0 {
		cutoff := time.Now().Add(-cfg.HistoryRetention)
		if n, err := store.PruneRuns(context.Background(), cutoff); err != nil {
			log.Warn("failed to prune run history", "error", err)
		} else if n > 0 {
			log.Info("pruned run history", "removed", n)
		}
	}

	analyzer, err := analysis.New(cfg, openRepository)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize analyzer: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:      mcpServer,
		analyzer: analyzer,
		store:    store,
		log:      log,
	}
	s.registerTools()

	return s, nil
}

// Tools lists the names of the registered tools, for registry
// advertisement.
func (s *Server) Tools() []string {
	return []string{"analyze_repository", "collect_metrics", "analyze_directories", "analysis_history"}
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	s.log.Info("serving MCP on stdio", "server", ServerName, "version", ServerVersion)
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(analyzeRepositoryTool(), s.handleAnalyzeRepository)
	s.mcp.AddTool(collectMetricsTool(), s.handleCollectMetrics)
	s.mcp.AddTool(analyzeDirectoriesTool(), s.handleAnalyzeDirectories)
	s.mcp.AddTool(analysisHistoryTool(), s.handleAnalysisHistory)
}
