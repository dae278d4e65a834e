package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repolens/repolens-mcp/pkg/types"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(repoPath string) *Run {
	return &Run{
		RepoPath:      repoPath,
		Kinds:         "metrics,structure",
		Status:        "complete",
		FilesScanned:  10,
		FilesIncluded: 8,
		FilesExcluded: 2,
		DurationMS:    42,
	}
}

func TestRecordAndGetRun(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := sampleRun("/repo/one")
	require.NoError(t, store.RecordRun(ctx, run))
	assert.NotZero(t, run.ID)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := store.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "/repo/one", got.RepoPath)
	assert.Equal(t, []string{"metrics", "structure"}, got.KindList())
	assert.Equal(t, 8, got.FilesIncluded)
	assert.Equal(t, int64(42), got.DurationMS)
}

func TestGetRun_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetRun(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRuns_NewestFirstAndFiltered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := sampleRun("/repo/a")
	second := sampleRun("/repo/a")
	other := sampleRun("/repo/b")
	require.NoError(t, store.RecordRun(ctx, first))
	require.NoError(t, store.RecordRun(ctx, second))
	require.NoError(t, store.RecordRun(ctx, other))

	all, err := store.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, other.ID, all[0].ID)

	filtered, err := store.ListRuns(ctx, RunFilter{RepoPath: "/repo/a"})
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, second.ID, filtered[0].ID)
	assert.Equal(t, first.ID, filtered[1].ID)
}

func TestListRuns_Limit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordRun(ctx, sampleRun("/repo/a")))
	}

	runs, err := store.ListRuns(ctx, RunFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestPruneRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordRun(ctx, sampleRun("/repo/a")))
	require.NoError(t, store.RecordRun(ctx, sampleRun("/repo/a")))

	// Nothing is older than a cutoff in the past.
	n, err := store.PruneRuns(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = store.PruneRuns(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	runs, err := store.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestNewRun(t *testing.T) {
	req := &types.AnalysisRequest{
		RepoPath:  "/repo",
		Revisions: &types.RevisionRange{From: "v1", To: "v2"},
		Kinds:     []types.AnalysisKind{types.KindMetrics, types.KindChanges},
	}
	res := &types.AnalysisResult{
		RepoPath: "/repo",
		Status:   types.ResultTruncated,
		Summary: &types.MetricsSummary{
			FilesScanned:  7,
			FilesIncluded: 5,
			FilesExcluded: 2,
			LinesAdded:    3,
			LinesRemoved:  1,
			Truncated:     true,
		},
		DurationMS: 12,
	}

	run := NewRun(req, res)
	assert.Equal(t, "metrics,changes", run.Kinds)
	assert.Equal(t, "v1", run.RevisionFrom)
	assert.Equal(t, "v2", run.RevisionTo)
	assert.Equal(t, "truncated", run.Status)
	assert.True(t, run.Truncated)
	assert.Equal(t, 5, run.FilesIncluded)
}

func TestNewRun_EmptyKindsRecordsDefault(t *testing.T) {
	req := &types.AnalysisRequest{RepoPath: "/repo"}
	res := &types.AnalysisResult{RepoPath: "/repo", Status: types.ResultComplete}

	run := NewRun(req, res)
	assert.Equal(t, "metrics,structure,changes", run.Kinds)
}
