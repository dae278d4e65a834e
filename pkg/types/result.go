package types

// ResultStatus is the terminal state of an analysis request. Callers must
// never infer truncation from a suspiciously round file count; the status
// says it explicitly.
type ResultStatus string

const (
	ResultComplete  ResultStatus = "complete"
	ResultTruncated ResultStatus = "truncated"
	ResultError     ResultStatus = "error"
)

// ExtensionStats accumulates per-extension counters.
type ExtensionStats struct {
	Count        int   `json:"count"`
	SizeBytes    int64 `json:"size_bytes"`
	LinesAdded   int   `json:"lines_added,omitempty"`
	LinesRemoved int   `json:"lines_removed,omitempty"`
}

// MetricsSummary holds the structural and change statistics for one walk.
// Totals are exact sums over the entries actually walked; under truncation
// the Truncated flag communicates that they are partial.
type MetricsSummary struct {
	FilesScanned   int                       `json:"files_scanned"`
	FilesIncluded  int                       `json:"files_included"`
	FilesExcluded  int                       `json:"files_excluded"`
	TotalSizeBytes int64                     `json:"total_size_bytes"`
	ByExtension    map[string]ExtensionStats `json:"by_extension"`
	LinesAdded     int                       `json:"lines_added"`
	LinesRemoved   int                       `json:"lines_removed"`
	Truncated      bool                      `json:"truncated"`
}

// DirectoryNode is one node of the reconstructed directory hierarchy.
// FileCount and SizeBytes aggregate the entire subtree. A directory with
// zero included files never appears in the tree.
type DirectoryNode struct {
	Name      string                    `json:"name"`
	Children  map[string]*DirectoryNode `json:"children,omitempty"`
	FileCount int                       `json:"file_count"`
	SizeBytes int64                     `json:"size_bytes"`
}

// AnalysisResult is the merged output of one analysis request.
type AnalysisResult struct {
	RepoPath   string          `json:"repo_path"`
	Status     ResultStatus    `json:"status"`
	Summary    *MetricsSummary `json:"summary,omitempty"`
	Structure  *DirectoryNode  `json:"structure,omitempty"`
	Changes    []FileEntry     `json:"changes,omitempty"`
	Skipped    []SkippedPath   `json:"skipped_paths,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}
