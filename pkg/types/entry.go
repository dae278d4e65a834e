package types

import "strings"

// EntryKind classifies a file entry yielded by the walker.
type EntryKind string

const (
	EntryRegular   EntryKind = "regular"
	EntryDirectory EntryKind = "directory"
	EntrySymlink   EntryKind = "symlink"
)

// ChangeStatus classifies how a file differs between two revisions,
// or between the working tree and HEAD.
type ChangeStatus string

const (
	ChangeAdded     ChangeStatus = "added"
	ChangeModified  ChangeStatus = "modified"
	ChangeDeleted   ChangeStatus = "deleted"
	ChangeUnchanged ChangeStatus = "unchanged"
)

// NoExtension is the sentinel extension key for files whose final path
// segment contains no '.' suffix.
const NoExtension = "no-extension"

// FileEntry is a single file observed during a walk. Paths are relative
// to the repository root and forward-slash normalized. Entries are owned
// by the walker until handed to a consumer and are never mutated after
// creation.
type FileEntry struct {
	Path         string       `json:"path"`
	Kind         EntryKind    `json:"kind"`
	SizeBytes    int64        `json:"size_bytes"`
	Status       ChangeStatus `json:"status"`
	LinesAdded   int          `json:"lines_added,omitempty"`
	LinesRemoved int          `json:"lines_removed,omitempty"`
}

// Extension returns the substring after the last '.' in the final path
// segment, or NoExtension when there is none. A leading dot alone
// ("dotfiles" like .gitignore) counts as an extension-less name only when
// nothing follows a later dot.
func (e FileEntry) Extension() string {
	base := e.Path
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}
	i := strings.LastIndexByte(base, '.')
	if i <= 0 || i == len(base)-1 {
		return NoExtension
	}
	return base[i+1:]
}

// RevisionRange is a pair of commit identifiers delimiting a diff.
type RevisionRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// SkippedPath records a file the walker could not read. Skips are
// non-terminal; they accumulate into the result's partial-error list.
type SkippedPath struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}
