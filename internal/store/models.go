package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/talenthium/patchtree/internal/patch"
)

// Snapshot sources.
const (
	SourceAPI = "api"
	SourceGit = "git"
)

// Snapshot is a stored commit diff.
type Snapshot struct {
	ID         string
	ProjectID  string
	CommitHash string
	Source     string
	Labels     []string
	Diff       patch.CommitDiff
	CreatedAt  time.Time
}

// SnapshotInfo is the listing view of a snapshot, without the diff payload.
type SnapshotInfo struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId"`
	CommitHash string    `json:"commitHash"`
	Source     string    `json:"source"`
	Message    string    `json:"message"`
	AuthorName string    `json:"authorName"`
	FileCount  int       `json:"fileCount"`
	Additions  int       `json:"additions"`
	Deletions  int       `json:"deletions"`
	Labels     []string  `json:"labels,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	ProjectID string
	Label     string
	Limit     int
}

// snapshotModel is the row shape of the snapshots table.
// created_at holds Unix milliseconds.
type snapshotModel struct {
	ID         string
	ProjectID  string
	CommitHash string
	Source     string
	Message    string
	AuthorName string
	FileCount  int
	Additions  int
	Deletions  int
	Payload    string
	CreatedAt  int64
}

func toSnapshotModel(s *Snapshot) (*snapshotModel, error) {
	payload, err := json.Marshal(s.Diff)
	if err != nil {
		return nil, fmt.Errorf("encoding diff: %w", err)
	}
	sum := patch.Summarize(s.Diff.Files)
	return &snapshotModel{
		ID:         s.ID,
		ProjectID:  s.ProjectID,
		CommitHash: s.CommitHash,
		Source:     s.Source,
		Message:    s.Diff.Commit.Message,
		AuthorName: s.Diff.Commit.Author.Name,
		FileCount:  sum.Files,
		Additions:  sum.Additions,
		Deletions:  sum.Deletions,
		Payload:    string(payload),
		CreatedAt:  s.CreatedAt.UnixMilli(),
	}, nil
}

func (m *snapshotModel) toSnapshot(labels []string) (*Snapshot, error) {
	var diff patch.CommitDiff
	if err := json.Unmarshal([]byte(m.Payload), &diff); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", m.ID, err)
	}
	return &Snapshot{
		ID:         m.ID,
		ProjectID:  m.ProjectID,
		CommitHash: m.CommitHash,
		Source:     m.Source,
		Labels:     labels,
		Diff:       diff,
		CreatedAt:  time.UnixMilli(m.CreatedAt),
	}, nil
}

func (m *snapshotModel) toInfo(labels []string) SnapshotInfo {
	return SnapshotInfo{
		ID:         m.ID,
		ProjectID:  m.ProjectID,
		CommitHash: m.CommitHash,
		Source:     m.Source,
		Message:    m.Message,
		AuthorName: m.AuthorName,
		FileCount:  m.FileCount,
		Additions:  m.Additions,
		Deletions:  m.Deletions,
		Labels:     labels,
		CreatedAt:  time.UnixMilli(m.CreatedAt),
	}
}
