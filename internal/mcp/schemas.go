package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// kindEnum lists the analysis kinds accepted over the wire.
var kindEnum = []string{"metrics", "structure", "changes"}

// optionsSchema is shared by every analysis tool.
func optionsSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Optional analysis limits and filters",
		"properties": map[string]interface{}{
			"max_files": map[string]interface{}{
				"type":        "integer",
				"description": "Maximum number of files to include before truncating the result",
				"minimum":     1,
			},
			"exclude_patterns": map[string]interface{}{
				"type":        "array",
				"description": "Glob patterns for paths to exclude, added to the server's defaults",
				"items": map[string]interface{}{
					"type": "string",
				},
			},
		},
	}
}

// revisionRangeSchema describes the from/to pair for commit diffs.
func revisionRangeSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Two revision identifiers to diff; omit to analyze the working tree",
		"properties": map[string]interface{}{
			"from": map[string]interface{}{
				"type":        "string",
				"description": "Base revision (commit hash, tag, or branch)",
			},
			"to": map[string]interface{}{
				"type":        "string",
				"description": "Target revision (commit hash, tag, or branch)",
			},
		},
		"required": []string{"from", "to"},
	}
}

// analyzeRepositoryTool returns the tool definition for analyze_repository
func analyzeRepositoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_repository",
		Description: "Run a full analysis of a git repository: file metrics, directory structure, and change statistics",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo_path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository root (must contain a .git directory)",
				},
				"revision_range": revisionRangeSchema(),
				"kinds": map[string]interface{}{
					"type":        "array",
					"description": "Analysis kinds to produce; defaults to all",
					"items": map[string]interface{}{
						"type": "string",
						"enum": kindEnum,
					},
				},
				"options": optionsSchema(),
			},
			Required: []string{"repo_path"},
		},
	}
}

// collectMetricsTool returns the tool definition for collect_metrics
func collectMetricsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "collect_metrics",
		Description: "Collect per-extension file counts, sizes, and line-change totals for a repository",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo_path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository root",
				},
				"revision_range": revisionRangeSchema(),
				"options":        optionsSchema(),
			},
			Required: []string{"repo_path"},
		},
	}
}

// analyzeDirectoriesTool returns the tool definition for analyze_directories
func analyzeDirectoriesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analyze_directories",
		Description: "Build the directory tree of a repository with per-directory file counts and sizes",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"repo_path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the repository root",
				},
				"options": optionsSchema(),
			},
			Required: []string{"repo_path"},
		},
	}
}

// analysisHistoryTool returns the tool definition for analysis_history
func analysisHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "analysis_history",
		Description: "List previously recorded analysis runs, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "integer",
					"description": "Return the full record of a single run instead of a listing",
				},
				"repo_path": map[string]interface{}{
					"type":        "string",
					"description": "Only list runs for this repository path",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs to return (1-200)",
					"default":     50,
					"minimum":     1,
					"maximum":     200,
				},
			},
		},
	}
}
