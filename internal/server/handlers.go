package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/talenthium/patchtree/internal/log"
	"github.com/talenthium/patchtree/internal/patch"
	"github.com/talenthium/patchtree/internal/store"
	"github.com/talenthium/patchtree/internal/tracing"
)

// maxListLimit caps GET /api/snapshots.
const maxListLimit = 500

type handler struct {
	diffs     DiffSource
	snapshots SnapshotStore
	tracer    trace.Tracer
}

func (h *handler) routes(r *gin.Engine) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/tree", endpoint(bindJSON[TreeRequest], h.tree))
	api.POST("/split", endpoint(bindJSON[SplitRequest], h.split))
	api.GET("/language", endpoint(bindQuery[LanguageParams], h.language))
	api.GET("/projects/:id/commits/:hash/view", endpoint(bindURIAndQuery[ViewParams], h.view))
	api.GET("/snapshots", endpoint(bindQuery[SnapshotListParams], h.snapshotList))
	api.GET("/snapshots/:id", endpoint(bindURIAndQuery[SnapshotParams], h.snapshotGet))
	api.DELETE("/snapshots/:id", endpoint(bindURIAndQuery[SnapshotParams], h.snapshotDelete))
}

// endpoint adapts a typed handler: bind params, call f, write JSON or an error.
func endpoint[P any](bind func(*gin.Context, *P) error, f func(context.Context, *P) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params P
		if err := bind(c, &params); err != nil {
			sendError(c, badRequest(err))
			return
		}

		result, err := f(c.Request.Context(), &params)
		if err != nil {
			sendError(c, err)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

func bindJSON[P any](c *gin.Context, p *P) error {
	if err := c.ShouldBindJSON(p); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func bindQuery[P any](c *gin.Context, p *P) error {
	return c.ShouldBindQuery(p)
}

func bindURIAndQuery[P any](c *gin.Context, p *P) error {
	if err := c.ShouldBindUri(p); err != nil {
		return err
	}
	return c.ShouldBindQuery(p)
}

// TreeRequest is the body of POST /api/tree.
type TreeRequest struct {
	Files []patch.FileChange `json:"files"`
	// Include keeps only files matching one of these globs.
	Include []string `json:"include"`
	// Sort orders folders first, then by name.
	Sort bool `json:"sort"`
}

// TreeResponse is the result of POST /api/tree.
type TreeResponse struct {
	Tree    []*patch.TreeNode `json:"tree"`
	Summary patch.Summary     `json:"summary"`
}

func (h *handler) tree(ctx context.Context, req *TreeRequest) (any, error) {
	_, span := tracing.Start(ctx, h.tracer, "tree.build",
		attribute.Int(tracing.AttrFileCount, len(req.Files)))
	defer span.End()

	files, err := patch.FilterFiles(req.Files, req.Include)
	if err != nil {
		return nil, badRequest(err)
	}

	roots := patch.BuildTree(files)
	if req.Sort {
		patch.SortTree(roots)
	}

	log.Debug(log.CatTree, "Built tree", "files", len(files), "roots", len(roots))
	return TreeResponse{Tree: roots, Summary: patch.Summarize(files)}, nil
}

// SplitRequest is the body of POST /api/split.
type SplitRequest struct {
	Patch    string `json:"patch"`
	Filename string `json:"filename"`
}

// SplitResponse holds the reconstructed buffers for one file.
type SplitResponse struct {
	Original string `json:"original"`
	Modified string `json:"modified"`
	Language string `json:"language"`
}

func (h *handler) split(ctx context.Context, req *SplitRequest) (any, error) {
	_, span := tracing.Start(ctx, h.tracer, "tree.split",
		attribute.String(tracing.AttrFilePath, req.Filename))
	defer span.End()

	original, modified := patch.SplitPatch(req.Patch)
	return SplitResponse{
		Original: original,
		Modified: modified,
		Language: patch.LanguageFor(req.Filename),
	}, nil
}

// LanguageParams is the query of GET /api/language.
type LanguageParams struct {
	Filename string `form:"filename"`
}

func (h *handler) language(_ context.Context, p *LanguageParams) (any, error) {
	return gin.H{"language": patch.LanguageFor(p.Filename)}, nil
}

// ViewParams addresses a commit on the project service.
type ViewParams struct {
	ProjectID string   `uri:"id" binding:"required"`
	Hash      string   `uri:"hash" binding:"required"`
	Snapshot  bool     `form:"snapshot"`
	Labels    []string `form:"label"`
}

func (h *handler) view(ctx context.Context, p *ViewParams) (any, error) {
	if h.diffs == nil {
		return nil, errNoDiffSource
	}

	diff, err := h.diffs.CommitDiff(ctx, p.ProjectID, p.Hash)
	if err != nil {
		if statusFor(err) == http.StatusInternalServerError {
			return nil, &httpError{status: http.StatusBadGateway, msg: fmt.Sprintf("fetching commit diff: %v", err)}
		}
		return nil, err
	}

	view := NewCommitView(diff)
	view.ProjectID = p.ProjectID
	view.CommitHash = p.Hash

	if p.Snapshot {
		if h.snapshots == nil {
			return nil, errNoSnapshotStore
		}
		id, err := h.snapshots.Save(ctx, store.Snapshot{
			ProjectID:  p.ProjectID,
			CommitHash: p.Hash,
			Source:     store.SourceAPI,
			Labels:     p.Labels,
			Diff:       *diff,
		})
		if err != nil {
			return nil, fmt.Errorf("saving snapshot: %w", err)
		}
		view.SnapshotID = id
		log.Info(log.CatServer, "Saved snapshot", "id", id, "project", p.ProjectID, "commit", p.Hash)
	}

	return view, nil
}

// SnapshotListParams filters GET /api/snapshots.
type SnapshotListParams struct {
	ProjectID string `form:"project"`
	Label     string `form:"label"`
	Limit     int    `form:"limit" binding:"min=0"`
}

func (h *handler) snapshotList(ctx context.Context, p *SnapshotListParams) (any, error) {
	if h.snapshots == nil {
		return nil, errNoSnapshotStore
	}

	limit := p.Limit
	if limit == 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	infos, err := h.snapshots.List(ctx, store.ListFilter{
		ProjectID: strings.TrimSpace(p.ProjectID),
		Label:     strings.TrimSpace(p.Label),
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	if infos == nil {
		infos = []store.SnapshotInfo{}
	}

	projects := lo.Uniq(lo.Map(infos, func(s store.SnapshotInfo, _ int) string { return s.ProjectID }))
	return gin.H{"snapshots": infos, "projects": projects}, nil
}

// SnapshotParams addresses one stored snapshot.
type SnapshotParams struct {
	ID string `uri:"id" binding:"required"`
}

func (h *handler) snapshotGet(ctx context.Context, p *SnapshotParams) (any, error) {
	if h.snapshots == nil {
		return nil, errNoSnapshotStore
	}

	snap, err := h.snapshots.FindByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	view := NewCommitView(&snap.Diff)
	view.ProjectID = snap.ProjectID
	view.CommitHash = snap.CommitHash
	view.SnapshotID = snap.ID
	return view, nil
}

func (h *handler) snapshotDelete(ctx context.Context, p *SnapshotParams) (any, error) {
	if h.snapshots == nil {
		return nil, errNoSnapshotStore
	}
	if err := h.snapshots.Delete(ctx, p.ID); err != nil {
		return nil, err
	}
	return gin.H{"deleted": p.ID}, nil
}
