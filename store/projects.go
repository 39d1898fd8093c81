package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/ownablekit/studio/errors"
	"github.com/ownablekit/studio/project"
)

// ProjectStore persists project trees as JSON documents keyed by name.
type ProjectStore struct {
	db *DB
}

// NewProjectStore creates a ProjectStore.
func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

// Put inserts or replaces a project under its name.
func (s *ProjectStore) Put(ctx context.Context, p *project.Project) error {
	if p == nil || p.Name == "" {
		return errors.InvalidInput(errors.PhaseStore, "project must have a name")
	}
	doc, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(errors.PhaseStore, errors.KindInvalidInput, err, "encode project")
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO projects (name, doc, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET doc = excluded.doc, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, p.Name, string(doc), now, now); err != nil {
		return errors.IO(errors.PhaseStore, err, "save project")
	}
	return nil
}

// Get loads a project by name.
func (s *ProjectStore) Get(ctx context.Context, name string) (*project.Project, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM projects WHERE name = ?`, name).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound(errors.PhaseStore, "project", name)
	}
	if err != nil {
		return nil, errors.IO(errors.PhaseStore, err, "load project")
	}

	var p project.Project
	if err := json.Unmarshal([]byte(doc), &p); err != nil {
		return nil, errors.Wrap(errors.PhaseStore, errors.KindIO, err, "decode project document")
	}
	return &p, nil
}

// List returns the names of all stored projects, newest first.
func (s *ProjectStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM projects ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, errors.IO(errors.PhaseStore, err, "list projects")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.IO(errors.PhaseStore, err, "scan project name")
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.IO(errors.PhaseStore, err, "iterate projects")
	}
	return names, nil
}

// Delete removes a project by name.
func (s *ProjectStore) Delete(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE name = ?`, name)
	if err != nil {
		return errors.IO(errors.PhaseStore, err, "delete project")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.IO(errors.PhaseStore, err, "delete project")
	}
	if affected == 0 {
		return errors.NotFound(errors.PhaseStore, "project", name)
	}
	return nil
}
