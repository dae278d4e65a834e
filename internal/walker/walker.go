// Package walker turns a repository source into a bounded, filtered,
// deterministically ordered stream of file entries. Each Walk call is
// independent and re-walks from scratch; there is no shared iterator
// state between calls.
package walker

import (
	"context"
	"sort"
	"strings"

	"github.com/repolens/repolens-mcp/internal/matcher"
	"github.com/repolens/repolens-mcp/pkg/types"
)

// Source is the version-control collaborator the walker enumerates from.
// Implementations return every candidate entry for the requested mode;
// filtering, ordering, and the cap are the walker's concern.
type Source interface {
	ListWorkingTree(ctx context.Context) ([]types.FileEntry, []types.SkippedPath, error)
	Diff(ctx context.Context, rng types.RevisionRange) ([]types.FileEntry, error)
	DiffWorkingTree(ctx context.Context) ([]types.FileEntry, []types.SkippedPath, error)
}

// Mode selects what the walker enumerates.
type Mode int

const (
	// Snapshot walks the current working tree.
	Snapshot Mode = iota
	// RevisionDiff walks only paths that differ between two revisions.
	RevisionDiff
	// WorktreeDiff walks only paths that differ between the working
	// tree and HEAD.
	WorktreeDiff
)

// Visit receives each included entry in traversal order. Returning an
// error aborts the walk.
type Visit func(types.FileEntry) error

// Result reports what one walk did. Included + Excluded always equals
// Scanned; Truncated means the walk stopped at the included-entry cap
// with entries still unexamined.
type Result struct {
	Scanned   int
	Included  int
	Excluded  int
	Truncated bool
	Skipped   []types.SkippedPath
}

// Walker filters and bounds a Source's entry stream.
type Walker struct {
	source Source
	rules  *matcher.RuleSet
	cap    int
}

// New creates a Walker. includeCap bounds the number of included entries
// yielded per walk; a non-positive cap means unbounded.
func New(source Source, rules *matcher.RuleSet, includeCap int) *Walker {
	return &Walker{source: source, rules: rules, cap: includeCap}
}

// Walk enumerates entries for the given mode, applies the exclude rules,
// and hands surviving entries to visit in lexicographic path order.
// Reaching the cap is a normal, reportable outcome, not a failure.
func (w *Walker) Walk(ctx context.Context, mode Mode, revs *types.RevisionRange, visit Visit) (*Result, error) {
	entries, skipped, err := w.enumerate(ctx, mode, revs)
	if err != nil {
		return nil, err
	}

	// Sources may produce entries in any order (directory listing order,
	// status map iteration). Sorting here is what makes repeated walks
	// over an unchanged tree reproducible.
	sort.Slice(entries, func(i, j int) bool {
		return strings.Compare(entries[i].Path, entries[j].Path) < 0
	})

	res := &Result{Skipped: skipped}
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res.Scanned++
		if w.rules.Matches(entry.Path) {
			res.Excluded++
			continue
		}
		res.Included++
		if err := visit(entry); err != nil {
			return nil, err
		}
		if w.cap > 0 && res.Included >= w.cap {
			if i < len(entries)-1 {
				res.Truncated = true
			}
			break
		}
	}
	return res, nil
}

func (w *Walker) enumerate(ctx context.Context, mode Mode, revs *types.RevisionRange) ([]types.FileEntry, []types.SkippedPath, error) {
	switch mode {
	case RevisionDiff:
		if revs == nil {
			return nil, nil, types.NewError(types.ErrRequestValidation, "revision diff requested without a revision range")
		}
		entries, err := w.source.Diff(ctx, *revs)
		return entries, nil, err
	case WorktreeDiff:
		return w.source.DiffWorkingTree(ctx)
	default:
		return w.source.ListWorkingTree(ctx)
	}
}
