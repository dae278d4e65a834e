package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/repolens/repolens-mcp/internal/storage"
	"github.com/repolens/repolens-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeRepoNotFound     = -32001 // Repository path missing or not a git repository
	ErrorCodeRevisionNotFound = -32002 // Requested revision does not resolve
	ErrorCodeCancelled        = -32003 // Analysis cancelled or timed out
)

// handleAnalyzeRepository handles the analyze_repository tool invocation
func (s *Server) handleAnalyzeRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := s.parseRequest(request, nil)
	if err != nil {
		return nil, err
	}
	return s.runAnalysis(ctx, req)
}

// handleCollectMetrics handles the collect_metrics tool invocation
func (s *Server) handleCollectMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kinds := []types.AnalysisKind{types.KindMetrics}
	req, err := s.parseRequest(request, kinds)
	if err != nil {
		return nil, err
	}
	// A revision range means the metrics cover the diff, including line
	// counts.
	if req.Revisions != nil {
		req.Kinds = append(req.Kinds, types.KindChanges)
	}
	return s.runAnalysis(ctx, req)
}

// handleAnalyzeDirectories handles the analyze_directories tool invocation
func (s *Server) handleAnalyzeDirectories(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := s.parseRequest(request, []types.AnalysisKind{types.KindStructure})
	if err != nil {
		return nil, err
	}
	return s.runAnalysis(ctx, req)
}

// handleAnalysisHistory handles the analysis_history tool invocation
func (s *Server) handleAnalysisHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		args = map[string]interface{}{}
	}

	if runID, ok := getInt64(args, "run_id"); ok {
		run, err := s.store.GetRun(ctx, runID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newMCPError(ErrorCodeInvalidParams, "run not found", map[string]interface{}{
				"param": "run_id",
				"value": runID,
			})
		}
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to load run", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return mcp.NewToolResultText(formatJSON(runDetail(run))), nil
	}

	limit := getIntDefault(args, "limit", storage.DefaultListLimit)
	if limit < 1 || limit > 200 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 200", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	runs, err := s.store.ListRuns(ctx, storage.RunFilter{
		RepoPath: getStringDefault(args, "repo_path", ""),
		Limit:    limit,
	})
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
	}

	entries := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, runEntry(run))
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"runs":  entries,
		"count": len(entries),
	})), nil
}

// runEntry is the condensed listing form of a recorded run.
func runEntry(run *storage.Run) map[string]interface{} {
	entry := map[string]interface{}{
		"id":             run.ID,
		"repo_path":      run.RepoPath,
		"kinds":          run.KindList(),
		"status":         run.Status,
		"files_included": run.FilesIncluded,
		"duration_ms":    run.DurationMS,
		"created_at":     run.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if run.RevisionFrom != "" {
		entry["revision_range"] = map[string]string{"from": run.RevisionFrom, "to": run.RevisionTo}
	}
	return entry
}

// runDetail adds the full counters for a single-run lookup.
func runDetail(run *storage.Run) map[string]interface{} {
	detail := runEntry(run)
	detail["files_scanned"] = run.FilesScanned
	detail["files_excluded"] = run.FilesExcluded
	detail["total_size_bytes"] = run.TotalSizeBytes
	detail["lines_added"] = run.LinesAdded
	detail["lines_removed"] = run.LinesRemoved
	detail["truncated"] = run.Truncated
	return detail
}

// parseRequest extracts the common analysis parameters. When forcedKinds
// is non-nil the tool decides the kinds itself and a caller-supplied
// kinds array is rejected by schema anyway.
func (s *Server) parseRequest(request mcp.CallToolRequest, forcedKinds []types.AnalysisKind) (*types.AnalysisRequest, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	repoPath, ok := args["repo_path"].(string)
	if !ok || repoPath == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "repo_path parameter is required", map[string]interface{}{
			"param":  "repo_path",
			"reason": "missing or empty",
		})
	}
	if err := validatePath(repoPath); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid repo_path", map[string]interface{}{
			"param":  "repo_path",
			"reason": err.Error(),
		})
	}

	req := &types.AnalysisRequest{RepoPath: repoPath}

	if forcedKinds != nil {
		req.Kinds = forcedKinds
	} else if raw, ok := args["kinds"].([]interface{}); ok {
		names := make([]string, 0, len(raw))
		for _, item := range raw {
			name, ok := item.(string)
			if !ok {
				return nil, newMCPError(ErrorCodeInvalidParams, "kinds must be an array of strings", nil)
			}
			names = append(names, name)
		}
		kinds, err := types.ParseKinds(names)
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), map[string]interface{}{
				"param":   "kinds",
				"allowed": kindEnum,
			})
		}
		req.Kinds = kinds
	}

	if raw, ok := args["revision_range"].(map[string]interface{}); ok {
		from := getStringDefault(raw, "from", "")
		to := getStringDefault(raw, "to", "")
		if from == "" || to == "" {
			return nil, newMCPError(ErrorCodeInvalidParams, "revision_range requires both from and to", map[string]interface{}{
				"param": "revision_range",
			})
		}
		req.Revisions = &types.RevisionRange{From: from, To: to}
	}

	if opts, ok := args["options"].(map[string]interface{}); ok {
		maxFiles := getIntDefault(opts, "max_files", 0)
		if maxFiles < 0 {
			return nil, newMCPError(ErrorCodeInvalidParams, "max_files must be positive", map[string]interface{}{
				"param": "max_files",
				"value": maxFiles,
			})
		}
		req.MaxFiles = maxFiles

		if raw, ok := opts["exclude_patterns"].([]interface{}); ok {
			for _, item := range raw {
				pattern, ok := item.(string)
				if !ok {
					return nil, newMCPError(ErrorCodeInvalidParams, "exclude_patterns must be an array of strings", nil)
				}
				req.ExcludePatterns = append(req.ExcludePatterns, pattern)
			}
		}
	}

	return req, nil
}

// runAnalysis executes the request, records the run, and renders the
// result as JSON text.
func (s *Server) runAnalysis(ctx context.Context, req *types.AnalysisRequest) (*mcp.CallToolResult, error) {
	result, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, asMCPError(err)
	}

	// History is best effort; a full disk must not fail the analysis.
	if recErr := s.store.RecordRun(ctx, storage.NewRun(req, result)); recErr != nil {
		s.log.Warn("failed to record analysis run", "repo", req.RepoPath, "error", recErr)
	}

	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to encode result", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(string(payload)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// asMCPError maps analyzer failures onto protocol error codes.
func asMCPError(err error) error {
	code := ErrorCodeInternalError
	switch types.KindOf(err) {
	case types.ErrRequestValidation:
		code = ErrorCodeInvalidParams
	case types.ErrRepositoryAccess:
		code = ErrorCodeRepoNotFound
	case types.ErrRevisionNotFound:
		code = ErrorCodeRevisionNotFound
	case types.ErrCancelled:
		code = ErrorCodeCancelled
	}
	return newMCPError(code, err.Error(), nil)
}

// validatePath checks if a path exists and is a readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getInt64 extracts an integer parameter, reporting whether it was set
func getInt64(args map[string]interface{}, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	}
	return 0, false
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("repo_path is required")
	ErrPathNotAbsolute = errors.New("repo_path must be absolute")
	ErrPathNotFound    = errors.New("repo_path does not exist")
	ErrPathNotReadable = errors.New("repo_path is not readable")
	ErrNotDirectory    = errors.New("repo_path is not a directory")
)
