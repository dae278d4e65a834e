package storage

import (
	"context"
	"strings"
	"time"

	"github.com/repolens/repolens-mcp/pkg/types"
)

// Store persists analysis run history.
type Store interface {
	// RecordRun saves one completed (or truncated) analysis run.
	RecordRun(ctx context.Context, run *Run) error

	// GetRun returns a single run by ID.
	GetRun(ctx context.Context, runID int64) (*Run, error)

	// ListRuns returns runs matching the filter, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error)

	// PruneRuns deletes runs older than the cutoff and returns the count.
	PruneRuns(ctx context.Context, before time.Time) (int, error)

	Close() error
}

// Run is one recorded analysis over a repository.
type Run struct {
	ID             int64
	RepoPath       string
	Kinds          string // comma-joined analysis kinds
	RevisionFrom   string
	RevisionTo     string
	Status         string
	FilesScanned   int
	FilesIncluded  int
	FilesExcluded  int
	TotalSizeBytes int64
	LinesAdded     int
	LinesRemoved   int
	Truncated      bool
	DurationMS     int64
	CreatedAt      time.Time
}

// RunFilter narrows ListRuns. A zero value lists everything up to the
// default limit.
type RunFilter struct {
	RepoPath string // exact match when non-empty
	Limit    int    // defaults to 50 when <= 0
}

// DefaultListLimit bounds ListRuns when the filter leaves Limit unset.
const DefaultListLimit = 50

// NewRun builds a history record from a finished analysis. An empty
// kind list records the default, all kinds.
func NewRun(req *types.AnalysisRequest, res *types.AnalysisResult) *Run {
	reqKinds := req.Kinds
	if len(reqKinds) == 0 {
		reqKinds = types.AllKinds
	}
	kinds := make([]string, 0, len(reqKinds))
	for _, k := range reqKinds {
		kinds = append(kinds, string(k))
	}
	run := &Run{
		RepoPath:   res.RepoPath,
		Kinds:      strings.Join(kinds, ","),
		Status:     string(res.Status),
		DurationMS: res.DurationMS,
	}
	if req.Revisions != nil {
		run.RevisionFrom = req.Revisions.From
		run.RevisionTo = req.Revisions.To
	}
	if s := res.Summary; s != nil {
		run.FilesScanned = s.FilesScanned
		run.FilesIncluded = s.FilesIncluded
		run.FilesExcluded = s.FilesExcluded
		run.TotalSizeBytes = s.TotalSizeBytes
		run.LinesAdded = s.LinesAdded
		run.LinesRemoved = s.LinesRemoved
		run.Truncated = s.Truncated
	}
	return run
}

// KindList splits the stored comma-joined kinds back into a slice.
func (r *Run) KindList() []string {
	if r.Kinds == "" {
		return nil
	}
	return strings.Split(r.Kinds, ",")
}
