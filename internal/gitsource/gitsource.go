// Package gitsource reads commit diffs from a local git repository in the same
// shape the project service returns them.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/talenthium/patchtree/internal/log"
	"github.com/talenthium/patchtree/internal/patch"
	"github.com/talenthium/patchtree/internal/tracing"
)

// Source is an opened repository.
type Source struct {
	repo   *git.Repository
	path   string
	tracer trace.Tracer
}

// Option configures a Source.
type Option func(*Source)

// WithTracer records a span per CommitDiff call.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Source) { s.tracer = tracer }
}

// Open opens the repository containing path.
func Open(path string, opts ...Option) (*Source, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository %s: %w", path, err)
	}
	s := &Source{repo: repo, path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Resolve turns a revision (hash, branch, tag, HEAD~1, ...) into a commit hash.
func (s *Source) Resolve(rev string) (plumbing.Hash, error) {
	if rev == "" {
		rev = "HEAD"
	}
	hash, err := s.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving %q: %w", rev, err)
	}
	return *hash, nil
}

// CommitDiff diffs rev against its first parent. A root commit diffs against
// the empty tree, so every file is added.
func (s *Source) CommitDiff(ctx context.Context, rev string) (_ *patch.CommitDiff, err error) {
	ctx, span := tracing.Start(ctx, s.tracer, tracing.SpanPrefixGit+"commit_diff")
	defer func() { tracing.Finish(span, err) }()

	hash, err := s.Resolve(rev)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String(tracing.AttrCommitHash, hash.String()))

	commit, err := s.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", hash, err)
	}

	commitTree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading tree of %s: %w", hash, err)
	}

	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("loading parent of %s: %w", hash, err)
		}
		if parentTree, err = parent.Tree(); err != nil {
			return nil, fmt.Errorf("loading parent tree of %s: %w", hash, err)
		}
	}

	changes, err := object.DiffTreeWithOptions(ctx, parentTree, commitTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("diffing %s: %w", hash, err)
	}

	files := make([]patch.FileChange, 0, len(changes))
	for _, change := range changes {
		fc, ok, err := fileChange(ctx, change)
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, fc)
		}
	}

	span.SetAttributes(attribute.Int(tracing.AttrFileCount, len(files)))
	log.Debug(log.CatGit, "Computed commit diff", "repo", s.path, "commit", hash.String(), "files", len(files))

	return &patch.CommitDiff{
		Commit: patch.Commit{
			Message: commit.Message,
			Author: patch.Author{
				Name: commit.Author.Name,
				Date: commit.Author.When,
			},
		},
		Files: files,
	}, nil
}

// fileChange converts one tree change. ok is false for submodule entries.
func fileChange(ctx context.Context, change *object.Change) (patch.FileChange, bool, error) {
	from, to, err := change.Files()
	if err != nil {
		return patch.FileChange{}, false, fmt.Errorf("reading change %s: %w", change, err)
	}
	if from == nil && to == nil {
		return patch.FileChange{}, false, nil
	}

	fc := patch.FileChange{}
	switch {
	case from != nil && to != nil && change.From.Name != change.To.Name:
		fc.Status = patch.StatusRenamed
		fc.Filename = change.To.Name
		fc.PreviousFilename = change.From.Name
	case from != nil && to != nil:
		fc.Status = patch.StatusModified
		fc.Filename = change.To.Name
	case to == nil:
		fc.Status = patch.StatusRemoved
		fc.Filename = change.From.Name
	default:
		fc.Status = patch.StatusAdded
		fc.Filename = change.To.Name
	}

	p, err := change.PatchContext(ctx)
	if err != nil {
		return patch.FileChange{}, false, fmt.Errorf("computing patch for %s: %w", fc.Filename, err)
	}

	binary := false
	for _, fp := range p.FilePatches() {
		if fp.IsBinary() {
			binary = true
		}
	}

	for _, st := range p.Stats() {
		fc.Additions += st.Addition
		fc.Deletions += st.Deletion
	}
	fc.Changes = fc.Additions + fc.Deletions

	if !binary {
		fc.Patch = hunksOnly(p.String())
	}
	return fc, true, nil
}

// hunksOnly drops the per-file header and keeps everything from the first
// hunk, matching the service's patch field.
func hunksOnly(unified string) string {
	idx := strings.Index(unified, "@@")
	if idx < 0 {
		return ""
	}
	// the hunk marker must start a line
	if idx > 0 && unified[idx-1] != '\n' {
		nl := strings.Index(unified, "\n@@")
		if nl < 0 {
			return ""
		}
		idx = nl + 1
	}
	return strings.TrimRight(unified[idx:], "\n")
}

// IsNotRepository reports whether err means the path is not inside a repository.
func IsNotRepository(err error) bool {
	return errors.Is(err, git.ErrRepositoryNotExists)
}
