package types

import "fmt"

// AnalysisKind selects which consumers run over the walked entry stream.
type AnalysisKind string

const (
	KindMetrics   AnalysisKind = "metrics"
	KindStructure AnalysisKind = "structure"
	KindChanges   AnalysisKind = "changes"
)

// AllKinds is the default set when a request names none.
var AllKinds = []AnalysisKind{KindMetrics, KindStructure, KindChanges}

// ParseKinds validates a caller-supplied kind list. An empty list means
// all kinds.
func ParseKinds(names []string) ([]AnalysisKind, error) {
	if len(names) == 0 {
		return AllKinds, nil
	}
	kinds := make([]AnalysisKind, 0, len(names))
	for _, name := range names {
		switch k := AnalysisKind(name); k {
		case KindMetrics, KindStructure, KindChanges:
			kinds = append(kinds, k)
		default:
			return nil, fmt.Errorf("unknown analysis kind %q", name)
		}
	}
	return kinds, nil
}

// AnalysisRequest describes a single repository analysis. Immutable once
// constructed; option zero values mean "use the configured default".
type AnalysisRequest struct {
	RepoPath        string
	Revisions       *RevisionRange // nil: working tree (or worktree-vs-HEAD for changes)
	Kinds           []AnalysisKind
	MaxFiles        int      // cap on included entries; 0 uses the configured cap
	ExcludePatterns []string // appended to the configured policy patterns
}
