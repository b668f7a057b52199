package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/talenthium/patchtree/internal/log"
	"github.com/talenthium/patchtree/internal/pubsub"
)

const snapshotColumns = `id, project_id, commit_hash, source, message, author_name,
	file_count, additions, deletions, payload, created_at`

const infoColumns = `id, project_id, commit_hash, source, message, author_name,
	file_count, additions, deletions, '' AS payload, created_at`

// SnapshotEvent identifies a snapshot that was saved or deleted.
type SnapshotEvent struct {
	ID         string
	ProjectID  string
	CommitHash string
}

// SnapshotRepository reads and writes snapshots.
type SnapshotRepository struct {
	db     *sql.DB
	now    func() time.Time
	events *pubsub.Broker[SnapshotEvent]
}

func newSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db, now: time.Now, events: pubsub.NewBroker[SnapshotEvent]()}
}

// Subscribe streams saves and deletes until ctx is done or the DB is closed.
// Deletes carry only the ID.
func (r *SnapshotRepository) Subscribe(ctx context.Context) <-chan pubsub.Event[SnapshotEvent] {
	return r.events.Subscribe(ctx)
}

func scanSnapshot(scanner interface{ Scan(...any) error }) (*snapshotModel, error) {
	var m snapshotModel
	err := scanner.Scan(
		&m.ID, &m.ProjectID, &m.CommitHash, &m.Source, &m.Message, &m.AuthorName,
		&m.FileCount, &m.Additions, &m.Deletions, &m.Payload, &m.CreatedAt,
	)
	return &m, err
}

// Save stores s and returns its id. A snapshot for the same project and commit
// is replaced in place and keeps its original id. Missing ID, Source and
// CreatedAt are filled in.
func (r *SnapshotRepository) Save(ctx context.Context, s Snapshot) (string, error) {
	if s.ProjectID == "" || s.CommitHash == "" {
		return "", errors.New("snapshot requires project id and commit hash")
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Source == "" {
		s.Source = SourceAPI
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = r.now()
	}

	m, err := toSnapshotModel(&s)
	if err != nil {
		return "", err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO snapshots (`+snapshotColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, commit_hash) DO UPDATE SET
			source = excluded.source,
			message = excluded.message,
			author_name = excluded.author_name,
			file_count = excluded.file_count,
			additions = excluded.additions,
			deletions = excluded.deletions,
			payload = excluded.payload,
			created_at = excluded.created_at
		 RETURNING id`,
		m.ID, m.ProjectID, m.CommitHash, m.Source, m.Message, m.AuthorName,
		m.FileCount, m.Additions, m.Deletions, m.Payload, m.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_labels WHERE snapshot_id = ?`, id); err != nil {
		return "", fmt.Errorf("failed to clear labels: %w", err)
	}
	for _, label := range normalizeLabels(s.Labels) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO snapshot_labels (snapshot_id, label) VALUES (?, ?)`, id, label,
		); err != nil {
			return "", fmt.Errorf("failed to save label %q: %w", label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}

	log.Debug(log.CatDB, "Saved snapshot", "id", id, "project", s.ProjectID, "commit", s.CommitHash, "files", m.FileCount)
	r.events.Publish(pubsub.KindSnapshotSaved, SnapshotEvent{ID: id, ProjectID: s.ProjectID, CommitHash: s.CommitHash})
	return id, nil
}

// FindByID returns the snapshot with id or *SnapshotNotFoundError.
func (r *SnapshotRepository) FindByID(ctx context.Context, id string) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+snapshotColumns+` FROM snapshots WHERE id = ?`, id)
	m, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &SnapshotNotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find snapshot by id: %w", err)
	}
	return r.hydrate(ctx, m)
}

// FindByCommit returns the snapshot for a project commit or *SnapshotNotFoundError.
func (r *SnapshotRepository) FindByCommit(ctx context.Context, projectID, hash string) (*Snapshot, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+snapshotColumns+` FROM snapshots WHERE project_id = ? AND commit_hash = ?`,
		projectID, hash,
	)
	m, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &SnapshotNotFoundError{ProjectID: projectID, CommitHash: hash}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find snapshot by commit: %w", err)
	}
	return r.hydrate(ctx, m)
}

func (r *SnapshotRepository) hydrate(ctx context.Context, m *snapshotModel) (*Snapshot, error) {
	labels, err := r.labels(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	return m.toSnapshot(labels)
}

// List returns snapshot summaries, newest first.
func (r *SnapshotRepository) List(ctx context.Context, filter ListFilter) ([]SnapshotInfo, error) {
	query := `SELECT ` + infoColumns + ` FROM snapshots`
	var where []string
	var args []any

	if filter.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.Label != "" {
		where = append(where, "id IN (SELECT snapshot_id FROM snapshot_labels WHERE label = ?)")
		args = append(args, filter.Label)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var models []*snapshotModel
	for rows.Next() {
		m, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		models = append(models, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	// close before issuing label queries on the same pool
	_ = rows.Close()

	infos := make([]SnapshotInfo, 0, len(models))
	for _, m := range models {
		labels, err := r.labels(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		infos = append(infos, m.toInfo(labels))
	}
	return infos, nil
}

// Delete removes a snapshot and its labels.
func (r *SnapshotRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return &SnapshotNotFoundError{ID: id}
	}
	log.Debug(log.CatDB, "Deleted snapshot", "id", id)
	r.events.Publish(pubsub.KindSnapshotDeleted, SnapshotEvent{ID: id})
	return nil
}

func (r *SnapshotRepository) labels(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT label FROM snapshot_labels WHERE snapshot_id = ? ORDER BY label`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load labels: %w", err)
	}
	defer rows.Close()

	var labels []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, rows.Err()
}

// normalizeLabels trims, drops empties and de-duplicates.
func normalizeLabels(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}
