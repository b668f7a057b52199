package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/talenthium/patchtree/internal/patch"
	"github.com/talenthium/patchtree/internal/projectapi"
	"github.com/talenthium/patchtree/internal/store"
)

type fakeDiffs struct {
	diff  *patch.CommitDiff
	err   error
	calls int
}

func (f *fakeDiffs) CommitDiff(_ context.Context, projectID, hash string) (*patch.CommitDiff, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.diff, nil
}

func sampleDiff() *patch.CommitDiff {
	return &patch.CommitDiff{
		Commit: patch.Commit{
			Message: "Add parser",
			Author:  patch.Author{Name: "Ada", Date: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
		Files: []patch.FileChange{
			{Filename: "src/parser.ts", Status: patch.StatusAdded, Additions: 2, Patch: "@@ -0,0 +1,2 @@\n+a\n+b"},
			{Filename: "README.md", Status: patch.StatusModified, Additions: 1, Deletions: 1, Patch: "@@ -1 +1 @@\n-old\n+new"},
		},
	}
}

func newTestStore(t *testing.T) *store.SnapshotRepository {
	t.Helper()
	db, err := store.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.Snapshots()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	rec := do(t, NewHandler(Config{}), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTree(t *testing.T) {
	h := NewHandler(Config{})
	body := `{"files":[{"filename":"src/a.ts","status":"added"},{"filename":"src/b.ts","status":"modified"},{"filename":"c.md","status":"removed"}]}`

	rec := do(t, h, http.MethodPost, "/api/tree", body)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[TreeResponse](t, rec)
	require.Len(t, resp.Tree, 2)
	require.Equal(t, "src", resp.Tree[0].Name)
	require.True(t, resp.Tree[0].IsFolder)
	require.Equal(t, "src/b.ts", resp.Tree[0].Children[1].Path)
	require.Equal(t, patch.StatusRemoved, resp.Tree[1].Status)
	require.Equal(t, 3, resp.Summary.Files)
}

func TestTree_IncludeAndSort(t *testing.T) {
	h := NewHandler(Config{})
	body := `{"files":[{"filename":"z.ts"},{"filename":"lib/a.go"},{"filename":"lib/b.ts"}],"include":["**/*.ts"],"sort":true}`

	resp := decode[TreeResponse](t, do(t, h, http.MethodPost, "/api/tree", body))
	require.Len(t, resp.Tree, 2)
	require.Equal(t, "lib", resp.Tree[0].Name)
	require.Len(t, resp.Tree[0].Children, 1)
	require.Equal(t, "z.ts", resp.Tree[1].Name)
}

func TestTree_EmptyFilesGivesEmptyTree(t *testing.T) {
	rec := do(t, NewHandler(Config{}), http.MethodPost, "/api/tree", `{"files":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"tree":[]`)
}

func TestTree_BadRequests(t *testing.T) {
	h := NewHandler(Config{})

	rec := do(t, h, http.MethodPost, "/api/tree", `{"files":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, decode[map[string]string](t, rec)["error"], "invalid request body")

	rec = do(t, h, http.MethodPost, "/api/tree", `{"files":[],"include":["[a-"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSplit(t *testing.T) {
	h := NewHandler(Config{})
	body := `{"patch":"@@ -1,2 +1,2 @@\n ctx\n-old\n+new\n","filename":"main.GO"}`

	rec := do(t, h, http.MethodPost, "/api/split", body)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, SplitResponse{Original: "ctx\nold", Modified: "ctx\nnew", Language: "go"}, decode[SplitResponse](t, rec))
}

func TestLanguage(t *testing.T) {
	h := NewHandler(Config{})

	rec := do(t, h, http.MethodGet, "/api/language?filename=app.tsx", "")
	require.JSONEq(t, `{"language":"typescript"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/api/language", "")
	require.JSONEq(t, `{"language":"plaintext"}`, rec.Body.String())
}

func TestView(t *testing.T) {
	diffs := &fakeDiffs{diff: sampleDiff()}
	h := NewHandler(Config{Diffs: diffs})

	rec := do(t, h, http.MethodGet, "/api/projects/p1/commits/abc/view", "")
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[CommitView](t, rec)
	require.Equal(t, "p1", view.ProjectID)
	require.Equal(t, "abc", view.CommitHash)
	require.Empty(t, view.SnapshotID)
	require.Equal(t, "Add parser", view.Commit.Message)
	require.Len(t, view.Tree, 2)
	require.Len(t, view.Files, 2)
	require.Equal(t, "typescript", view.Files[0].Language)
	require.Equal(t, "", view.Files[0].Original)
	require.Equal(t, "a\nb", view.Files[0].Modified)
	require.Equal(t, "old", view.Files[1].Original)
}

func TestView_Snapshot(t *testing.T) {
	snapshots := newTestStore(t)
	h := NewHandler(Config{Diffs: &fakeDiffs{diff: sampleDiff()}, Snapshots: snapshots})

	rec := do(t, h, http.MethodGet, "/api/projects/p1/commits/abc/view?snapshot=true&label=review", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[CommitView](t, rec)
	require.NotEmpty(t, view.SnapshotID)

	rec = do(t, h, http.MethodGet, "/api/snapshots", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Snapshots []store.SnapshotInfo `json:"snapshots"`
		Projects  []string             `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Snapshots, 1)
	require.Equal(t, []string{"review"}, list.Snapshots[0].Labels)
	require.Equal(t, []string{"p1"}, list.Projects)

	rec = do(t, h, http.MethodGet, "/api/snapshots/"+view.SnapshotID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stored := decode[CommitView](t, rec)
	require.Equal(t, view.SnapshotID, stored.SnapshotID)
	require.Equal(t, "abc", stored.CommitHash)
	require.Len(t, stored.Files, 2)

	rec = do(t, h, http.MethodDelete, "/api/snapshots/"+view.SnapshotID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/snapshots/"+view.SnapshotID, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestView_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", &projectapi.StatusError{Code: http.StatusNotFound, Path: "/x"}, http.StatusNotFound},
		{"server error", &projectapi.StatusError{Code: http.StatusInternalServerError, Path: "/x"}, http.StatusBadGateway},
		{"unauthorized", &projectapi.StatusError{Code: http.StatusUnauthorized, Path: "/x"}, http.StatusBadGateway},
		{"transport", errors.New("connection refused"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(Config{Diffs: &fakeDiffs{err: tt.err}})
			rec := do(t, h, http.MethodGet, "/api/projects/p1/commits/abc/view", "")
			require.Equal(t, tt.want, rec.Code)
			require.NotEmpty(t, decode[map[string]string](t, rec)["error"])
		})
	}
}

func TestUnconfiguredCollaborators(t *testing.T) {
	h := NewHandler(Config{})
	require.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/projects/p/commits/h/view", "").Code)
	require.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/snapshots", "").Code)

	h = NewHandler(Config{Diffs: &fakeDiffs{diff: sampleDiff()}})
	require.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/projects/p/commits/h/view?snapshot=true", "").Code)
}

func TestSnapshotList_BadLimit(t *testing.T) {
	h := NewHandler(Config{Snapshots: newTestStore(t)})
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/snapshots?limit=abc", "").Code)
	require.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/snapshots?limit=-1", "").Code)
}

func TestServer_StartStop(t *testing.T) {
	srv, err := New(Config{Addr: "127.0.0.1:0"})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	require.NoError(t, <-done)
}

func TestNewCommitView_DoesNotShareFiles(t *testing.T) {
	diff := sampleDiff()
	view := NewCommitView(diff)
	view.Files[0].Filename = "changed"
	require.Equal(t, "src/parser.ts", diff.Files[0].Filename)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(view))
	require.Contains(t, buf.String(), `"filename":"changed"`)
}
