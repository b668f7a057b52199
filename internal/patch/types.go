// Package patch reconstructs file trees and side-by-side text from commit diffs.
package patch

import "time"

// Status is the change status reported for a file in a commit diff.
type Status string

const (
	StatusAdded    Status = "added"
	StatusRemoved  Status = "removed"
	StatusDeleted  Status = "deleted"
	StatusModified Status = "modified"
	StatusRenamed  Status = "renamed"
)

// IsRemoval reports whether the status means the file no longer exists.
// Upstream uses both "removed" and "deleted" for the same thing.
func (s Status) IsRemoval() bool {
	return s == StatusRemoved || s == StatusDeleted
}

// OneSided reports whether the file has text on only one side of its patch:
// added files have no original and removed files no modified text.
func (s Status) OneSided() bool {
	return s == StatusAdded || s.IsRemoval()
}

// Indicator returns a single-character badge for the status.
// A = Added, D = Deleted/Removed, M = Modified, R = Renamed.
func (s Status) Indicator() string {
	switch s {
	case StatusAdded:
		return "A"
	case StatusRemoved, StatusDeleted:
		return "D"
	case StatusModified:
		return "M"
	case StatusRenamed:
		return "R"
	default:
		return ""
	}
}

// FileChange is one file touched by a commit, as returned by the project service.
type FileChange struct {
	Filename         string `json:"filename"`
	Status           Status `json:"status"`
	Additions        int    `json:"additions"`
	Deletions        int    `json:"deletions"`
	Changes          int    `json:"changes"`
	Patch            string `json:"patch,omitempty"`
	PreviousFilename string `json:"previous_filename,omitempty"`
}

// HasPatch reports whether a diff can be rendered for this file.
func (f *FileChange) HasPatch() bool {
	return f != nil && f.Patch != ""
}

// Author identifies who made a commit.
type Author struct {
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// Commit is the metadata block of a diff response.
type Commit struct {
	Message string `json:"message"`
	Author  Author `json:"author"`
}

// CommitDiff is the decoded body of the commit diff endpoint.
type CommitDiff struct {
	Commit Commit       `json:"commit"`
	Files  []FileChange `json:"files"`
}

// TreeNode is one path segment in a reconstructed file hierarchy.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	IsFolder bool        `json:"isFolder"`
	Children []*TreeNode `json:"children"`
	File     *FileChange `json:"file,omitempty"`
	Status   Status      `json:"status,omitempty"`
}

// LineType represents the type of a diff line.
type LineType int

const (
	LineContext    LineType = iota // ' ' prefix - unchanged line
	LineAddition                   // '+' prefix - added line
	LineDeletion                   // '-' prefix - deleted line
	LineHunkHeader                 // '@@ ... @@' - hunk marker
)

// String returns the wire name of the line type.
func (t LineType) String() string {
	switch t {
	case LineContext:
		return "context"
	case LineAddition:
		return "add"
	case LineDeletion:
		return "delete"
	case LineHunkHeader:
		return "hunk"
	default:
		return "unknown"
	}
}

// MarshalText encodes the line type by name.
func (t LineType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// DiffLine represents a single line in a diff hunk.
type DiffLine struct {
	Type       LineType `json:"type"`
	OldLineNum int      `json:"oldLine,omitempty"` // 0 for additions
	NewLineNum int      `json:"newLine,omitempty"` // 0 for deletions
	Content    string   `json:"content"`
}

// Hunk is a contiguous block of changes within one file's patch.
type Hunk struct {
	OldStart int        `json:"oldStart"`
	OldCount int        `json:"oldCount"`
	NewStart int        `json:"newStart"`
	NewCount int        `json:"newCount"`
	Header   string     `json:"header"`
	Lines    []DiffLine `json:"lines"`
}
