package store

import (
	"context"

	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
)

const reportColumns = "t.id, t.type, t.reference_id, t.user_id, t.reason, t.description, t.created_at, t.updated_at"

func scanReport(row scanner) (model.Report, error) {
	var r model.Report
	err := row.Scan(&r.ID, &r.Type, &r.ReferenceID, &r.UserID, &r.Reason, &r.Description, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (s *PostgresStore) GetReport(ctx context.Context, id int64) (model.Report, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+reportColumns+" FROM reports AS t WHERE t.id = $1", id)

	r, err := scanReport(row)
	if err != nil {
		return r, mapPqErr(err)
	}

	return r, nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, r model.Report) (model.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO reports AS t (type, reference_id, user_id, reason, description)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+reportColumns,
		r.Type, r.ReferenceID, r.UserID, r.Reason, r.Description)

	created, err := scanReport(row)
	if err != nil {
		return created, mapPqErr(err)
	}

	return created, nil
}

func (s *PostgresStore) UpdateReport(ctx context.Context, r model.Report) (model.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE reports AS t
		 SET type = $2, reference_id = $3, user_id = $4, reason = $5, description = $6, updated_at = now()
		 WHERE t.id = $1
		 RETURNING `+reportColumns,
		r.ID, r.Type, r.ReferenceID, r.UserID, r.Reason, r.Description)

	updated, err := scanReport(row)
	if err != nil {
		return updated, mapPqErr(err)
	}

	return updated, nil
}

func (s *PostgresStore) DeleteReport(ctx context.Context, id int64) error {
	return execAffecting(ctx, s.db, "DELETE FROM reports WHERE id = $1", id)
}

func (s *PostgresStore) ListReports(ctx context.Context, spec query.Spec) (query.Page[model.Report], error) {
	return fetchPage(ctx, s.db, "reports AS t", reportColumns, spec, scanReport)
}
