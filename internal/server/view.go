package server

import (
	"github.com/samber/lo"

	"github.com/talenthium/patchtree/internal/patch"
)

// FileView is one changed file with its split buffers and language.
type FileView struct {
	patch.FileChange
	Language string `json:"language"`
	Original string `json:"original"`
	Modified string `json:"modified"`
}

// CommitView is everything a client needs to show a commit: header, tree and
// per-file side-by-side buffers.
type CommitView struct {
	ProjectID  string            `json:"projectId,omitempty"`
	CommitHash string            `json:"commitHash,omitempty"`
	SnapshotID string            `json:"snapshotId,omitempty"`
	Commit     patch.Commit      `json:"commit"`
	Summary    patch.Summary     `json:"summary"`
	Tree       []*patch.TreeNode `json:"tree"`
	Files      []FileView        `json:"files"`
}

// NewCommitView derives the view model for diff. It is rebuilt per request.
func NewCommitView(diff *patch.CommitDiff) CommitView {
	return CommitView{
		Commit:  diff.Commit,
		Summary: patch.Summarize(diff.Files),
		Tree:    patch.BuildTree(diff.Files),
		Files: lo.Map(diff.Files, func(f patch.FileChange, _ int) FileView {
			original, modified := patch.SplitPatch(f.Patch)
			return FileView{
				FileChange: f,
				Language:   patch.LanguageFor(f.Filename),
				Original:   original,
				Modified:   modified,
			}
		}),
	}
}
