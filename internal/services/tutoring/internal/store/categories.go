package store

import (
	"context"

	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
)

const categoryColumns = "t.id, t.name, t.locked, t.created_at, t.updated_at"

func scanCategory(row scanner) (model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.Name, &c.Locked, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (s *PostgresStore) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories AS t WHERE t.id = $1", id)

	c, err := scanCategory(row)
	if err != nil {
		return c, mapPqErr(err)
	}

	return c, nil
}

// CreateCategory inserts a category. A taken name yields ErrExists.
func (s *PostgresStore) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO categories AS t (name, locked) VALUES ($1, $2)
		 RETURNING `+categoryColumns,
		c.Name, c.Locked)

	created, err := scanCategory(row)
	if err != nil {
		return created, mapPqErr(err)
	}

	return created, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE categories AS t SET name = $2, locked = $3, updated_at = now()
		 WHERE t.id = $1
		 RETURNING `+categoryColumns,
		c.ID, c.Name, c.Locked)

	updated, err := scanCategory(row)
	if err != nil {
		return updated, mapPqErr(err)
	}

	return updated, nil
}

// DeleteCategory removes a category. A category still used by a booking
// yields ErrReference.
func (s *PostgresStore) DeleteCategory(ctx context.Context, id int64) error {
	return execAffecting(ctx, s.db, "DELETE FROM categories WHERE id = $1", id)
}

func (s *PostgresStore) ListCategories(ctx context.Context, spec query.Spec) (query.Page[model.Category], error) {
	return fetchPage(ctx, s.db, "categories AS t", categoryColumns, spec, scanCategory)
}
