package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/ownablekit/studio/errors"
)

// Package is a stored build output: the archive bytes plus the
// identifying metadata of the build that produced them.
type Package struct {
	CID       string    `json:"cid"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Filename  string    `json:"filename"`
	Archive   []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// PackageStore persists built package archives keyed by their content
// identifier. Storing the same archive twice is a no-op: identical
// bytes carry identical identifiers.
type PackageStore struct {
	db *DB
}

// NewPackageStore creates a PackageStore.
func NewPackageStore(db *DB) *PackageStore {
	return &PackageStore{db: db}
}

// Put stores a package archive under its content identifier.
func (s *PackageStore) Put(ctx context.Context, pkg Package) error {
	if pkg.CID == "" {
		return errors.InvalidInput(errors.PhaseStore, "package must have a cid")
	}
	if len(pkg.Archive) == 0 {
		return errors.InvalidInput(errors.PhaseStore, "package has no archive bytes")
	}

	createdAt := pkg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO packages (cid, name, version, filename, archive, created_at) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cid) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query,
		pkg.CID, pkg.Name, pkg.Version, pkg.Filename, pkg.Archive, createdAt); err != nil {
		return errors.IO(errors.PhaseStore, err, "save package")
	}
	return nil
}

// Get loads a package, archive included, by content identifier.
func (s *PackageStore) Get(ctx context.Context, cid string) (*Package, error) {
	var pkg Package
	err := s.db.QueryRowContext(ctx, `
		SELECT cid, name, version, filename, archive, created_at
		FROM packages WHERE cid = ?
	`, cid).Scan(&pkg.CID, &pkg.Name, &pkg.Version, &pkg.Filename, &pkg.Archive, &pkg.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, errors.NotFound(errors.PhaseStore, "package", cid)
	}
	if err != nil {
		return nil, errors.IO(errors.PhaseStore, err, "load package")
	}
	return &pkg, nil
}

// List returns package metadata, newest first, without archive bytes.
func (s *PackageStore) List(ctx context.Context) ([]Package, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cid, name, version, filename, created_at
		FROM packages ORDER BY created_at DESC, cid
	`)
	if err != nil {
		return nil, errors.IO(errors.PhaseStore, err, "list packages")
	}
	defer rows.Close()

	var pkgs []Package
	for rows.Next() {
		var pkg Package
		if err := rows.Scan(&pkg.CID, &pkg.Name, &pkg.Version, &pkg.Filename, &pkg.CreatedAt); err != nil {
			return nil, errors.IO(errors.PhaseStore, err, "scan package row")
		}
		pkgs = append(pkgs, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.IO(errors.PhaseStore, err, "iterate packages")
	}
	return pkgs, nil
}

// Delete removes a package by content identifier.
func (s *PackageStore) Delete(ctx context.Context, cid string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM packages WHERE cid = ?`, cid)
	if err != nil {
		return errors.IO(errors.PhaseStore, err, "delete package")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.IO(errors.PhaseStore, err, "delete package")
	}
	if affected == 0 {
		return errors.NotFound(errors.PhaseStore, "package", cid)
	}
	return nil
}
