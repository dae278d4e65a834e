package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens-mcp/internal/storage"
	"github.com/repolens/repolens-mcp/pkg/types"
)

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// seedRepo creates a committed git repository with a few files.
func seedRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	files := map[string]string{
		"main.go":        "package main\n",
		"pkg/util.go":    "package pkg\n",
		"docs/readme.md": "# readme\n",
	}
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}

	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, wt.AddWithOptions(&git.AddOptions{All: true}))
	_, err = wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
	return dir
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)
	return text.Text
}

func TestHandleAnalyzeRepository(t *testing.T) {
	s := newTestServer(t)
	repo := seedRepo(t)

	result, err := s.handleAnalyzeRepository(context.Background(), toolRequest("analyze_repository", map[string]interface{}{
		"repo_path": repo,
	}))
	require.NoError(t, err)

	var res types.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &res))
	assert.Equal(t, types.ResultComplete, res.Status)
	assert.Equal(t, 3, res.Summary.FilesIncluded)
	require.NotNil(t, res.Structure)
	assert.Contains(t, res.Structure.Children, "pkg")
}

func TestHandleAnalyzeRepository_ExcludeOption(t *testing.T) {
	s := newTestServer(t)
	repo := seedRepo(t)

	result, err := s.handleAnalyzeRepository(context.Background(), toolRequest("analyze_repository", map[string]interface{}{
		"repo_path": repo,
		"kinds":     []interface{}{"metrics"},
		"options": map[string]interface{}{
			"exclude_patterns": []interface{}{"*.md"},
		},
	}))
	require.NoError(t, err)

	var res types.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &res))
	assert.Equal(t, 2, res.Summary.FilesIncluded)
	assert.Equal(t, 1, res.Summary.FilesExcluded)
	assert.Nil(t, res.Structure)
}

func TestHandleAnalyzeRepository_Truncation(t *testing.T) {
	s := newTestServer(t)
	repo := seedRepo(t)

	result, err := s.handleAnalyzeRepository(context.Background(), toolRequest("analyze_repository", map[string]interface{}{
		"repo_path": repo,
		"options":   map[string]interface{}{"max_files": float64(1)},
	}))
	require.NoError(t, err)

	var res types.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &res))
	assert.Equal(t, types.ResultTruncated, res.Status)
	assert.Equal(t, 1, res.Summary.FilesIncluded)
}

func TestHandleAnalyzeRepository_ParamErrors(t *testing.T) {
	s := newTestServer(t)
	repo := seedRepo(t)

	tests := []struct {
		name string
		args map[string]interface{}
		code int
	}{
		{"missing repo_path", map[string]interface{}{}, ErrorCodeInvalidParams},
		{"relative repo_path", map[string]interface{}{"repo_path": "relative/path"}, ErrorCodeInvalidParams},
		{"nonexistent repo_path", map[string]interface{}{"repo_path": filepath.Join(repo, "missing")}, ErrorCodeInvalidParams},
		{"unknown kind", map[string]interface{}{"repo_path": repo, "kinds": []interface{}{"bogus"}}, ErrorCodeInvalidParams},
		{"half revision range", map[string]interface{}{"repo_path": repo, "revision_range": map[string]interface{}{"from": "HEAD"}}, ErrorCodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleAnalyzeRepository(context.Background(), toolRequest("analyze_repository", tt.args))
			require.Error(t, err)
			var mcpErr *MCPError
			require.ErrorAs(t, err, &mcpErr)
			assert.Equal(t, tt.code, mcpErr.Code)
		})
	}
}

func TestHandleAnalyzeRepository_NotAGitRepo(t *testing.T) {
	s := newTestServer(t)
	dir := t.TempDir()

	_, err := s.handleAnalyzeRepository(context.Background(), toolRequest("analyze_repository", map[string]interface{}{
		"repo_path": dir,
	}))
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeRepoNotFound, mcpErr.Code)
}

func TestHandleAnalyzeRepository_UnknownRevision(t *testing.T) {
	s := newTestServer(t)
	repo := seedRepo(t)

	_, err := s.handleAnalyzeRepository(context.Background(), toolRequest("analyze_repository", map[string]interface{}{
		"repo_path":      repo,
		"revision_range": map[string]interface{}{"from": "no-such-rev", "to": "HEAD"},
	}))
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeRevisionNotFound, mcpErr.Code)
}

func TestHandleCollectMetrics(t *testing.T) {
	s := newTestServer(t)
	repo := seedRepo(t)

	result, err := s.handleCollectMetrics(context.Background(), toolRequest("collect_metrics", map[string]interface{}{
		"repo_path": repo,
	}))
	require.NoError(t, err)

	var res types.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &res))
	assert.Equal(t, 2, res.Summary.ByExtension["go"].Count)
	assert.Nil(t, res.Structure)
	assert.Empty(t, res.Changes)
}

func TestHandleAnalyzeDirectories(t *testing.T) {
	s := newTestServer(t)
	repo := seedRepo(t)

	result, err := s.handleAnalyzeDirectories(context.Background(), toolRequest("analyze_directories", map[string]interface{}{
		"repo_path": repo,
	}))
	require.NoError(t, err)

	var res types.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &res))
	require.NotNil(t, res.Structure)
	assert.Equal(t, 3, res.Structure.FileCount)
	assert.Contains(t, res.Structure.Children, "docs")
}

func TestHandleAnalysisHistory(t *testing.T) {
	s := newTestServer(t)
	repo := seedRepo(t)

	// No runs yet.
	result, err := s.handleAnalysisHistory(context.Background(), toolRequest("analysis_history", map[string]interface{}{}))
	require.NoError(t, err)
	var empty struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &empty))
	assert.Equal(t, 0, empty.Count)

	// Each analysis leaves a history row.
	_, err = s.handleAnalyzeRepository(context.Background(), toolRequest("analyze_repository", map[string]interface{}{
		"repo_path": repo,
	}))
	require.NoError(t, err)

	result, err = s.handleAnalysisHistory(context.Background(), toolRequest("analysis_history", map[string]interface{}{
		"repo_path": repo,
	}))
	require.NoError(t, err)

	var history struct {
		Count int `json:"count"`
		Runs  []struct {
			RepoPath string   `json:"repo_path"`
			Kinds    []string `json:"kinds"`
			Status   string   `json:"status"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &history))
	require.Equal(t, 1, history.Count)
	assert.Equal(t, repo, history.Runs[0].RepoPath)
	assert.Equal(t, "complete", history.Runs[0].Status)
	assert.ElementsMatch(t, []string{"metrics", "structure", "changes"}, history.Runs[0].Kinds)
}

func TestHandleAnalysisHistory_RunDetail(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	run := &storage.Run{
		RepoPath:      "/repo/detail",
		Kinds:         "metrics,changes",
		RevisionFrom:  "v1",
		RevisionTo:    "v2",
		Status:        "complete",
		FilesScanned:  9,
		FilesIncluded: 7,
		FilesExcluded: 2,
		LinesAdded:    4,
		LinesRemoved:  1,
	}
	require.NoError(t, s.store.RecordRun(ctx, run))

	result, err := s.handleAnalysisHistory(ctx, toolRequest("analysis_history", map[string]interface{}{
		"run_id": float64(run.ID),
	}))
	require.NoError(t, err)

	var detail struct {
		RepoPath      string            `json:"repo_path"`
		Kinds         []string          `json:"kinds"`
		FilesScanned  int               `json:"files_scanned"`
		FilesExcluded int               `json:"files_excluded"`
		LinesAdded    int               `json:"lines_added"`
		RevisionRange map[string]string `json:"revision_range"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &detail))
	assert.Equal(t, "/repo/detail", detail.RepoPath)
	assert.Equal(t, []string{"metrics", "changes"}, detail.Kinds)
	assert.Equal(t, 9, detail.FilesScanned)
	assert.Equal(t, 2, detail.FilesExcluded)
	assert.Equal(t, 4, detail.LinesAdded)
	assert.Equal(t, "v1", detail.RevisionRange["from"])
	assert.Equal(t, "v2", detail.RevisionRange["to"])
}

func TestHandleAnalysisHistory_UnknownRunID(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleAnalysisHistory(context.Background(), toolRequest("analysis_history", map[string]interface{}{
		"run_id": float64(12345),
	}))
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleAnalysisHistory_BadLimit(t *testing.T) {
	s := newTestServer(t)

	_, err := s.handleAnalysisHistory(context.Background(), toolRequest("analysis_history", map[string]interface{}{
		"limit": float64(500),
	}))
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}
