// Package mcp implements the Model Context Protocol (MCP) server for RepoLens.
//
// The server exposes four tools to agent clients:
//   - analyze_repository: full analysis (metrics, structure, changes)
//   - collect_metrics: per-extension file and line statistics only
//   - analyze_directories: directory tree with subtree aggregates only
//   - analysis_history: previously recorded runs from the local store
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server reads requests on stdin and writes responses to stdout;
// stdout is reserved for protocol traffic, so all logging goes to stderr.
//
// # Tool: analyze_repository
//
//	Request:
//	{
//	  "name": "analyze_repository",
//	  "arguments": {
//	    "repo_path": "/path/to/repo",
//	    "revision_range": {"from": "v1.2.0", "to": "HEAD"},
//	    "kinds": ["metrics", "changes"],
//	    "options": {"max_files": 5000, "exclude_patterns": ["*.gen.go"]}
//	  }
//	}
//
//	Response (abridged):
//	{
//	  "repo_path": "/path/to/repo",
//	  "status": "complete",
//	  "summary": {
//	    "files_scanned": 312,
//	    "files_included": 287,
//	    "by_extension": {"go": {"count": 201, "size_bytes": 1048576}}
//	  },
//	  "changes": [{"path": "internal/walker/walker.go", "status": "modified"}]
//	}
//
// A truncated walk reports "status": "truncated"; it is never an error.
//
// # Error Handling
//
// Failures are standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32001,
//	    "message": "repository access failed: ..."
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error
//   - -32001: Repository not found or not a git repository
//   - -32002: Revision does not resolve
//   - -32003: Analysis cancelled or timed out
package mcp
