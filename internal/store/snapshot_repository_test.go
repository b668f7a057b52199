package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talenthium/patchtree/internal/patch"
	"github.com/talenthium/patchtree/internal/pubsub"
)

func sampleDiff(message string) patch.CommitDiff {
	return patch.CommitDiff{
		Commit: patch.Commit{
			Message: message,
			Author:  patch.Author{Name: "Ada", Date: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
		},
		Files: []patch.FileChange{
			{Filename: "src/app.tsx", Status: patch.StatusModified, Additions: 2, Deletions: 1, Patch: "@@ -1 +1 @@\n-a\n+b"},
			{Filename: "README.md", Status: patch.StatusAdded, Additions: 5},
		},
	}
}

func TestSnapshotRepository_SaveAndFind(t *testing.T) {
	repo := newTestDB(t).Snapshots()
	ctx := context.Background()

	id, err := repo.Save(ctx, Snapshot{
		ProjectID:  "p1",
		CommitHash: "abc123",
		Labels:     []string{"review", " review ", "", "bug"},
		Diff:       sampleDiff("Fix header"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "p1", got.ProjectID)
	require.Equal(t, SourceAPI, got.Source)
	require.Equal(t, []string{"bug", "review"}, got.Labels)
	require.Equal(t, "Fix header", got.Diff.Commit.Message)
	require.True(t, got.Diff.Commit.Author.Date.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
	require.Len(t, got.Diff.Files, 2)
	require.Equal(t, "@@ -1 +1 @@\n-a\n+b", got.Diff.Files[0].Patch)

	byCommit, err := repo.FindByCommit(ctx, "p1", "abc123")
	require.NoError(t, err)
	require.Equal(t, id, byCommit.ID)
}

func TestSnapshotRepository_SaveRequiresKeys(t *testing.T) {
	repo := newTestDB(t).Snapshots()
	_, err := repo.Save(context.Background(), Snapshot{ProjectID: "p1"})
	require.Error(t, err)
}

func TestSnapshotRepository_SaveSameCommitReplaces(t *testing.T) {
	repo := newTestDB(t).Snapshots()
	ctx := context.Background()

	first, err := repo.Save(ctx, Snapshot{ProjectID: "p1", CommitHash: "abc", Labels: []string{"old"}, Diff: sampleDiff("v1")})
	require.NoError(t, err)
	second, err := repo.Save(ctx, Snapshot{ProjectID: "p1", CommitHash: "abc", Source: SourceGit, Diff: sampleDiff("v2")})
	require.NoError(t, err)
	require.Equal(t, first, second, "upsert keeps the original id")

	got, err := repo.FindByID(ctx, first)
	require.NoError(t, err)
	require.Equal(t, "v2", got.Diff.Commit.Message)
	require.Equal(t, SourceGit, got.Source)
	require.Empty(t, got.Labels)

	infos, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, infos, 1)
}

func TestSnapshotRepository_NotFound(t *testing.T) {
	repo := newTestDB(t).Snapshots()
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "missing")
	var nf *SnapshotNotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, "snapshot missing not found", err.Error())

	_, err = repo.FindByCommit(ctx, "p1", "nope")
	require.True(t, errors.As(err, &nf))
	require.Contains(t, err.Error(), "commit nope")

	err = repo.Delete(ctx, "missing")
	require.True(t, errors.As(err, &nf))
}

func TestSnapshotRepository_ListOrderingAndFilters(t *testing.T) {
	repo := newTestDB(t).Snapshots()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	save := func(project, hash string, offset time.Duration, labels ...string) string {
		id, err := repo.Save(ctx, Snapshot{
			ProjectID:  project,
			CommitHash: hash,
			Labels:     labels,
			CreatedAt:  base.Add(offset),
			Diff:       sampleDiff(hash),
		})
		require.NoError(t, err)
		return id
	}
	save("p1", "c1", 0)
	save("p1", "c2", time.Hour, "release")
	save("p2", "c3", 2*time.Hour, "release")

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "c3", all[0].CommitHash, "newest first")
	require.Equal(t, "c1", all[2].CommitHash)
	require.Equal(t, 2, all[0].FileCount)
	require.Equal(t, 7, all[0].Additions)
	require.Equal(t, 1, all[0].Deletions)
	require.Equal(t, "Ada", all[0].AuthorName)
	require.Equal(t, []string{"release"}, all[0].Labels)

	limited, err := repo.List(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	p1, err := repo.List(ctx, ListFilter{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, p1, 2)

	release, err := repo.List(ctx, ListFilter{ProjectID: "p1", Label: "release"})
	require.NoError(t, err)
	require.Len(t, release, 1)
	require.Equal(t, "c2", release[0].CommitHash)
}

func TestSnapshotRepository_DeleteCascadesLabels(t *testing.T) {
	db := newTestDB(t)
	repo := db.Snapshots()
	ctx := context.Background()

	id, err := repo.Save(ctx, Snapshot{ProjectID: "p", CommitHash: "h", Labels: []string{"x"}, Diff: sampleDiff("m")})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))

	var n int
	require.NoError(t, db.Connection().QueryRow("SELECT COUNT(*) FROM snapshot_labels").Scan(&n))
	require.Zero(t, n)

	_, err = repo.FindByID(ctx, id)
	require.Error(t, err)
}

func TestSnapshotRepository_FixedClock(t *testing.T) {
	repo := newTestDB(t).Snapshots()
	fixed := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	id, err := repo.Save(context.Background(), Snapshot{ProjectID: "p", CommitHash: "h", Diff: sampleDiff("m")})
	require.NoError(t, err)

	got, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.True(t, got.CreatedAt.Equal(fixed))
}

func TestSnapshotRepository_PublishesEvents(t *testing.T) {
	db := newTestDB(t)
	repo := db.Snapshots()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := repo.Subscribe(ctx)

	id, err := repo.Save(ctx, Snapshot{ProjectID: "p", CommitHash: "h", Diff: sampleDiff("m")})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, id))
	require.Error(t, repo.Delete(ctx, id))

	next := func() pubsub.Event[SnapshotEvent] {
		select {
		case event := <-events:
			return event
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for snapshot event")
			return pubsub.Event[SnapshotEvent]{}
		}
	}

	saved := next()
	require.Equal(t, pubsub.KindSnapshotSaved, saved.Kind)
	require.Equal(t, SnapshotEvent{ID: id, ProjectID: "p", CommitHash: "h"}, saved.Payload)

	deleted := next()
	require.Equal(t, pubsub.KindSnapshotDeleted, deleted.Kind)
	require.Equal(t, id, deleted.Payload.ID)

	select {
	case event := <-events:
		t.Fatalf("unexpected event for failed delete: %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDB_CloseEndsSubscriptions(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "patchtree.db"))
	require.NoError(t, err)

	events := db.Snapshots().Subscribe(context.Background())
	require.NoError(t, db.Close())

	_, ok := <-events
	require.False(t, ok)
}
