package store

import (
	"context"

	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
)

const reviewColumns = "t.id, t.reviewer_id, t.reviewee_id, t.rating, t.content, t.created_at, t.updated_at"

func scanReview(row scanner) (model.Review, error) {
	var r model.Review
	err := row.Scan(&r.ID, &r.ReviewerID, &r.RevieweeID, &r.Rating, &r.Content, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *PostgresStore) GetReview(ctx context.Context, id int64) (model.Review, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+reviewColumns+" FROM reviews AS t WHERE t.id = $1", id)

	r, err := scanReview(row)
	if err != nil {
		return r, mapPqErr(err)
	}

	return r, nil
}

// CreateReview inserts a review. A second review of the same pair yields ErrExists.
func (s *PostgresStore) CreateReview(ctx context.Context, r model.Review) (model.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO reviews AS t (reviewer_id, reviewee_id, rating, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+reviewColumns,
		r.ReviewerID, r.RevieweeID, r.Rating, r.Content)

	created, err := scanReview(row)
	if err != nil {
		return created, mapPqErr(err)
	}

	return created, nil
}

func (s *PostgresStore) UpdateReview(ctx context.Context, r model.Review) (model.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE reviews AS t
		 SET reviewer_id = $2, reviewee_id = $3, rating = $4, content = $5, updated_at = now()
		 WHERE t.id = $1
		 RETURNING `+reviewColumns,
		r.ID, r.ReviewerID, r.RevieweeID, r.Rating, r.Content)

	updated, err := scanReview(row)
	if err != nil {
		return updated, mapPqErr(err)
	}

	return updated, nil
}

func (s *PostgresStore) DeleteReview(ctx context.Context, id int64) error {
	return execAffecting(ctx, s.db, "DELETE FROM reviews WHERE id = $1", id)
}

func (s *PostgresStore) ListReviews(ctx context.Context, spec query.Spec) (query.Page[model.Review], error) {
	return fetchPage(ctx, s.db, "reviews AS t", reviewColumns, spec, scanReview)
}
