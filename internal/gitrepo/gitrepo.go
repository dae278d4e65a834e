// Package gitrepo implements the version-control collaborator for the
// analysis pipeline on top of go-git. It enumerates working trees and
// revision diffs; it never interprets exclude policy, which belongs to
// the matcher, and never caps output, which belongs to the walker.
package gitrepo

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	gitignore "github.com/monochromegane/go-gitignore"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/repolens/repolens-mcp/internal/matcher"
	"github.com/repolens/repolens-mcp/pkg/types"
)

const gitDirName = ".git"

// Repository wraps an opened git working tree.
type Repository struct {
	root string
	repo *git.Repository
}

// Open validates that path is a readable git working tree and opens it.
// Any failure here is terminal for the request: no partial walk is
// attempted against a path we could not open.
func Open(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, types.WrapError(types.ErrRepositoryAccess, err, "cannot resolve path %q", path)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, types.WrapError(types.ErrRepositoryAccess, err, "cannot read repository path %q", path)
	}
	if !info.IsDir() {
		return nil, types.NewError(types.ErrRepositoryAccess, "repository path %q is not a directory", path)
	}
	repo, err := git.PlainOpen(abs)
	if err != nil {
		return nil, types.WrapError(types.ErrRepositoryAccess, err, "path %q is not a git working tree", path)
	}
	return &Repository{root: abs, repo: repo}, nil
}

// Root returns the absolute path of the working tree.
func (r *Repository) Root() string { return r.root }

// ListWorkingTree enumerates every file currently in the working tree,
// depth-first. Version-control internals are skipped by construction and
// the repository's own .gitignore is honored before any exclude policy
// applies. Unreadable files are recorded, not raised.
func (r *Repository) ListWorkingTree(ctx context.Context) ([]types.FileEntry, []types.SkippedPath, error) {
	var (
		entries []types.FileEntry
		skipped []types.SkippedPath
	)

	var ignore gitignore.IgnoreMatcher
	if m, err := gitignore.NewGitIgnore(filepath.Join(r.root, ".gitignore")); err == nil {
		ignore = m
	}

	walkErr := filepath.WalkDir(r.root, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			skipped = append(skipped, types.SkippedPath{Path: r.relPath(p), Reason: err.Error()})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == r.root {
			return nil
		}
		rel := r.relPath(p)

		if d.IsDir() {
			if d.Name() == gitDirName {
				return fs.SkipDir
			}
			if ignore != nil && ignore.Match(rel, true) {
				return fs.SkipDir
			}
			return nil
		}
		if ignore != nil && ignore.Match(rel, false) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			skipped = append(skipped, types.SkippedPath{Path: rel, Reason: err.Error()})
			return nil
		}
		kind := types.EntryRegular
		if info.Mode()&fs.ModeSymlink != 0 {
			kind = types.EntrySymlink
		}
		// Surface unreadable files (permission denied, broken symlinks)
		// in the partial-error list instead of aborting the walk.
		f, err := os.Open(p)
		if err != nil {
			skipped = append(skipped, types.SkippedPath{Path: rel, Reason: err.Error()})
			return nil
		}
		_ = f.Close()

		entries = append(entries, types.FileEntry{
			Path:      rel,
			Kind:      kind,
			SizeBytes: info.Size(),
			Status:    types.ChangeUnchanged,
		})
		return nil
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}
	return entries, skipped, nil
}

// Diff enumerates the files whose content or presence differs between two
// revisions, with per-file line statistics.
func (r *Repository) Diff(ctx context.Context, rng types.RevisionRange) ([]types.FileEntry, error) {
	from, err := r.resolveCommit(rng.From)
	if err != nil {
		return nil, err
	}
	to, err := r.resolveCommit(rng.To)
	if err != nil {
		return nil, err
	}

	fromTree, err := from.Tree()
	if err != nil {
		return nil, types.WrapError(types.ErrInternal, err, "reading tree for %s", rng.From)
	}
	toTree, err := to.Tree()
	if err != nil {
		return nil, types.WrapError(types.ErrInternal, err, "reading tree for %s", rng.To)
	}

	changes, err := object.DiffTreeWithOptions(ctx, fromTree, toTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, types.WrapError(types.ErrInternal, err, "diffing %s..%s", rng.From, rng.To)
	}

	entries := make([]types.FileEntry, 0, len(changes))
	for _, ch := range changes {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		entry, err := r.changeEntry(ctx, ch)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// DiffWorkingTree enumerates files that differ between the working tree
// and HEAD, classifying each and counting line changes against the HEAD
// blob. In a repository with no commits yet every file is added.
func (r *Repository) DiffWorkingTree(ctx context.Context) ([]types.FileEntry, []types.SkippedPath, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, nil, types.WrapError(types.ErrRepositoryAccess, err, "opening worktree")
	}
	status, err := wt.Status()
	if err != nil {
		return nil, nil, types.WrapError(types.ErrInternal, err, "reading worktree status")
	}

	var headTree *object.Tree
	if head, err := r.repo.Head(); err == nil {
		if commit, err := r.repo.CommitObject(head.Hash()); err == nil {
			headTree, _ = commit.Tree()
		}
	}

	var (
		entries []types.FileEntry
		skipped []types.SkippedPath
	)
	for path, st := range status {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		changeStatus := classifyStatus(st)
		if changeStatus == types.ChangeUnchanged {
			continue
		}

		var oldText string
		if headTree != nil {
			if f, err := headTree.File(path); err == nil {
				oldText, _ = f.Contents()
			}
		}

		var newText string
		var size int64
		if changeStatus != types.ChangeDeleted {
			raw, err := os.ReadFile(filepath.Join(r.root, filepath.FromSlash(path)))
			if err != nil {
				skipped = append(skipped, types.SkippedPath{Path: path, Reason: err.Error()})
				continue
			}
			newText = string(raw)
			size = int64(len(raw))
		}

		added, removed := countLineChanges(oldText, newText)
		entries = append(entries, types.FileEntry{
			Path:         path,
			Kind:         types.EntryRegular,
			SizeBytes:    size,
			Status:       changeStatus,
			LinesAdded:   added,
			LinesRemoved: removed,
		})
	}
	return entries, skipped, nil
}

func (r *Repository) relPath(p string) string {
	rel, err := filepath.Rel(r.root, p)
	if err != nil {
		rel = p
	}
	return matcher.NormalizePath(filepath.ToSlash(rel))
}

func (r *Repository) resolveCommit(rev string) (*object.Commit, error) {
	if rev == "" {
		return nil, types.NewError(types.ErrRevisionNotFound, "empty revision identifier")
	}
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, types.WrapError(types.ErrRevisionNotFound, err, "revision %q not found", rev)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, types.WrapError(types.ErrRevisionNotFound, err, "revision %q is not a commit", rev)
	}
	return commit, nil
}

func (r *Repository) changeEntry(ctx context.Context, ch *object.Change) (types.FileEntry, error) {
	action, err := ch.Action()
	if err != nil {
		return types.FileEntry{}, types.WrapError(types.ErrInternal, err, "classifying change")
	}

	entry := types.FileEntry{Kind: types.EntryRegular}
	switch action {
	case merkletrie.Insert:
		entry.Status = types.ChangeAdded
		entry.Path = ch.To.Name
	case merkletrie.Delete:
		entry.Status = types.ChangeDeleted
		entry.Path = ch.From.Name
	default:
		entry.Status = types.ChangeModified
		entry.Path = ch.To.Name
	}

	if entry.Status != types.ChangeDeleted {
		if blob, err := r.repo.BlobObject(ch.To.TreeEntry.Hash); err == nil {
			entry.SizeBytes = blob.Size
		}
	}

	patch, err := ch.PatchContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return types.FileEntry{}, err
		}
		// Binary or otherwise undiffable content: keep the entry, no
		// line counts.
		return entry, nil
	}
	for _, stat := range patch.Stats() {
		entry.LinesAdded += stat.Addition
		entry.LinesRemoved += stat.Deletion
	}
	return entry, nil
}

func classifyStatus(st *git.FileStatus) types.ChangeStatus {
	// A staged-added file edited afterwards is still an addition relative
	// to HEAD.
	if st.Staging == git.Added {
		if st.Worktree == git.Deleted {
			return types.ChangeUnchanged
		}
		return types.ChangeAdded
	}
	code := st.Worktree
	if code == git.Unmodified {
		code = st.Staging
	}
	switch code {
	case git.Untracked, git.Added:
		return types.ChangeAdded
	case git.Deleted:
		return types.ChangeDeleted
	case git.Unmodified:
		return types.ChangeUnchanged
	default:
		return types.ChangeModified
	}
}

// countLineChanges diffs two texts line-by-line and returns the number of
// lines added and removed.
func countLineChanges(oldText, newText string) (added, removed int) {
	if oldText == newText {
		return 0, 0
	}
	dmp := diffmatchpatch.New()
	oldChars, newChars, lines := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lines)
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += lineCount(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += lineCount(d.Text)
		}
	}
	return added, removed
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
