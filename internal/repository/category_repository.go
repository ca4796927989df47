package repository

import (
	"context"
	"database/sql"
)

// CategoryRepo resolves categories.  Category CRUD lives elsewhere;
// events only need to verify that a referenced category exists before
// assigning it.
type CategoryRepo struct {
	db *sql.DB
}

// NewCategoryRepo returns a new CategoryRepo bound to the given database.
func NewCategoryRepo(db *sql.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// Exists reports whether a category with the given id is present.
func (r *CategoryRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
