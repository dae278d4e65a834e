package analysis

import (
	"context"
	"errors"
	"slices"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/repolens/repolens-mcp/internal/config"
	"github.com/repolens/repolens-mcp/internal/matcher"
	"github.com/repolens/repolens-mcp/internal/walker"
	"github.com/repolens/repolens-mcp/pkg/types"
)

// SourceOpener opens the version-control source for a repository path.
// Kept as a function so tests can substitute a fake source.
type SourceOpener func(path string) (walker.Source, error)

// consumer is an analysis-kind variant accepting entries from the walk.
type consumer interface {
	Accept(types.FileEntry) error
}

// changeCollector gathers per-file change entries in diff modes.
type changeCollector struct {
	entries []types.FileEntry
}

func (c *changeCollector) Accept(e types.FileEntry) error {
	c.entries = append(c.entries, e)
	return nil
}

// Analyzer is the facade driving one analysis request through
// walker -> matcher -> consumers. It is safe for concurrent use;
// concurrent requests are bounded by the configured limit.
type Analyzer struct {
	cfg         config.Config
	policyRules *matcher.RuleSet
	open        SourceOpener
	slots       *semaphore.Weighted
}

// New creates an Analyzer from an immutable configuration snapshot. The
// static exclude policy is compiled once here so malformed policy fails
// at startup, not per request.
func New(cfg config.Config, open SourceOpener) (*Analyzer, error) {
	rules, err := matcher.New(cfg.ExcludePatterns...)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:         cfg,
		policyRules: rules,
		open:        open,
		slots:       semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}, nil
}

// Analyze runs one request to completion. Truncation is reported through
// the result status, never as an error; terminal failures (validation,
// repository access, unknown revisions, cancellation) return a
// *types.Error and no partial data.
func (a *Analyzer) Analyze(ctx context.Context, req *types.AnalysisRequest) (*types.AnalysisResult, error) {
	started := time.Now()

	rules, err := a.validate(req)
	if err != nil {
		return nil, err
	}

	if err := a.slots.Acquire(ctx, 1); err != nil {
		return nil, types.WrapError(types.ErrCancelled, err, "request cancelled while waiting for a worker slot")
	}
	defer a.slots.Release(1)

	ctx, cancel := context.WithTimeout(ctx, a.cfg.RequestTimeout)
	defer cancel()

	source, err := a.open(req.RepoPath)
	if err != nil {
		return nil, err
	}

	fileCap := req.MaxFiles
	if fileCap <= 0 {
		fileCap = a.cfg.MaxFiles
	}

	// The default is resolved locally; the request stays untouched.
	kinds := req.Kinds
	if len(kinds) == 0 {
		kinds = types.AllKinds
	}

	// Kinds that were not requested never get a consumer at all.
	var (
		metrics *MetricsAggregator
		tree    *TreeBuilder
		changes *changeCollector
	)
	if slices.Contains(kinds, types.KindMetrics) {
		metrics = NewMetricsAggregator()
	}
	if slices.Contains(kinds, types.KindStructure) {
		tree = NewTreeBuilder()
	}
	if slices.Contains(kinds, types.KindChanges) {
		changes = &changeCollector{}
	}

	w := walker.New(source, rules, fileCap)
	var (
		walkRes   *walker.Result
		skipped   []types.SkippedPath
		truncated bool
	)
	for _, plan := range planWalks(req, metrics, tree, changes) {
		res, err := w.Walk(ctx, plan.mode, plan.revs, func(e types.FileEntry) error {
			for _, c := range plan.consumers {
				if err := c.Accept(e); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, asTerminal(err)
		}
		skipped = append(skipped, res.Skipped...)
		truncated = truncated || res.Truncated
		if plan.primary || walkRes == nil {
			walkRes = res
		}
	}

	result := &types.AnalysisResult{
		RepoPath:   req.RepoPath,
		Status:     types.ResultComplete,
		Skipped:    skipped,
		DurationMS: time.Since(started).Milliseconds(),
	}
	if truncated {
		result.Status = types.ResultTruncated
	}

	walkRes.Truncated = truncated
	if metrics != nil {
		metrics.ObserveWalk(walkRes)
		result.Summary = metrics.Finalize()
	} else {
		result.Summary = &types.MetricsSummary{
			FilesScanned:  walkRes.Scanned,
			FilesIncluded: walkRes.Included,
			FilesExcluded: walkRes.Excluded,
			Truncated:     truncated,
		}
	}
	if tree != nil {
		result.Structure = tree.Root()
	}
	if changes != nil {
		result.Changes = changes.entries
	}
	return result, nil
}

// validate rejects malformed requests before any walk starts and compiles
// the effective rule set (static policy plus per-request extras).
func (a *Analyzer) validate(req *types.AnalysisRequest) (*matcher.RuleSet, error) {
	if req == nil || req.RepoPath == "" {
		return nil, types.NewError(types.ErrRequestValidation, "repo_path is required")
	}
	if req.MaxFiles < 0 {
		return nil, types.NewError(types.ErrRequestValidation, "max_files must not be negative")
	}
	if req.Revisions != nil && (req.Revisions.From == "" || req.Revisions.To == "") {
		return nil, types.NewError(types.ErrRequestValidation, "revision_range requires two revision identifiers")
	}
	for _, k := range req.Kinds {
		switch k {
		case types.KindMetrics, types.KindStructure, types.KindChanges:
		default:
			return nil, types.NewError(types.ErrRequestValidation, "unknown analysis kind %q", k)
		}
	}

	if len(req.ExcludePatterns) == 0 {
		return a.policyRules, nil
	}
	patterns := append(append([]string(nil), a.cfg.ExcludePatterns...), req.ExcludePatterns...)
	rules, err := matcher.New(patterns...)
	if err != nil {
		return nil, types.WrapError(types.ErrRequestValidation, err, "invalid exclude pattern")
	}
	return rules, nil
}

// walkPlan is one enumeration of the source and the consumers it feeds.
// The primary plan's counts become the result's headline numbers.
type walkPlan struct {
	mode      walker.Mode
	revs      *types.RevisionRange
	consumers []consumer
	primary   bool
}

// planWalks decides how the source is enumerated. An explicit revision
// range means one commit diff feeding every consumer. Without a range,
// metrics and structure consume a full snapshot of the working tree,
// while the changes consumer gets a worktree-vs-HEAD diff; the snapshot
// is still traversed exactly once no matter how many kinds consume it.
func planWalks(req *types.AnalysisRequest, metrics *MetricsAggregator, tree *TreeBuilder, changes *changeCollector) []walkPlan {
	if req.Revisions != nil {
		var all []consumer
		if metrics != nil {
			all = append(all, metrics)
		}
		if tree != nil {
			all = append(all, tree)
		}
		if changes != nil {
			all = append(all, changes)
		}
		return []walkPlan{{mode: walker.RevisionDiff, revs: req.Revisions, consumers: all, primary: true}}
	}

	var plans []walkPlan
	var snapshot []consumer
	if metrics != nil {
		snapshot = append(snapshot, metrics)
	}
	if tree != nil {
		snapshot = append(snapshot, tree)
	}
	if len(snapshot) > 0 {
		plans = append(plans, walkPlan{mode: walker.Snapshot, consumers: snapshot, primary: true})
	}
	if changes != nil {
		plans = append(plans, walkPlan{mode: walker.WorktreeDiff, consumers: []consumer{changes}, primary: len(snapshot) == 0})
	}
	return plans
}

// asTerminal maps walk failures onto the error taxonomy. Timeout expiry
// surfaces as cancellation.
func asTerminal(err error) error {
	var typed *types.Error
	if errors.As(err, &typed) {
		return typed
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.WrapError(types.ErrCancelled, err, "analysis cancelled")
	}
	return types.WrapError(types.ErrInternal, err, "analysis failed")
}
