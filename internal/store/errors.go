package store

import "fmt"

// SnapshotNotFoundError is returned when no snapshot matches a lookup.
type SnapshotNotFoundError struct {
	ID         string
	ProjectID  string
	CommitHash string
}

func (e *SnapshotNotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("snapshot %s not found", e.ID)
	}
	return fmt.Sprintf("no snapshot for project %s commit %s", e.ProjectID, e.CommitHash)
}
