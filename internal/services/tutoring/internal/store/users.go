package store

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
)

const userColumns = `t.id, t.email, t.first_name, t.last_name, t.profile_url, t.description,
	t.is_tutor, t.is_superuser, t.google_calendar_id, t.created_at, t.updated_at,
	ARRAY(SELECT uc.category_id FROM user_categories uc WHERE uc.user_id = t.id ORDER BY uc.category_id)`

func scanUser(row scanner) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.ProfileURL,
		&u.Description,
		&u.IsTutor,
		&u.IsSuperuser,
		&u.GoogleCalendarID,
		&u.CreatedAt,
		&u.UpdatedAt,
		pq.Array(&u.CategoryIDs))
	return u, err
}

func (s *PostgresStore) getUserWhere(ctx context.Context, cond string, arg any) (model.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users AS t WHERE "+cond, arg)

	u, err := scanUser(row)
	if err != nil {
		return u, mapPqErr(err)
	}

	return u, nil
}

// GetUser retrieves a user with its category ids
func (s *PostgresStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	return s.getUserWhere(ctx, "t.id = $1", id)
}

// GetUserByEmail retrieves a user by its unique email
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return s.getUserWhere(ctx, "t.email = $1", email)
}

// CreateUser inserts a user. A taken email yields ErrExists.
func (s *PostgresStore) CreateUser(ctx context.Context, r CreateUserRequest) (model.User, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (email, first_name, last_name, profile_url)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		r.Email, r.FirstName, r.LastName, r.ProfileURL).Scan(&id)
	if err != nil {
		return model.User{}, mapPqErr(err)
	}

	return s.GetUser(ctx, id)
}

// UpdateUser overwrites the editable profile fields. The calendar id is not
// touched; it is set only through SetCalendarID.
func (s *PostgresStore) UpdateUser(ctx context.Context, u model.User) (model.User, error) {
	err := execAffecting(ctx, s.db,
		`UPDATE users
		 SET first_name = $2, last_name = $3, profile_url = $4, description = $5,
		     is_tutor = $6, is_superuser = $7, updated_at = now()
		 WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.ProfileURL, u.Description, u.IsTutor, u.IsSuperuser)
	if err != nil {
		return model.User{}, err
	}

	return s.GetUser(ctx, u.ID)
}

// SetUserCategories replaces the user's category set.
func (s *PostgresStore) SetUserCategories(ctx context.Context, userID int64, categoryIDs []int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM user_categories WHERE user_id = $1", userID)
	if err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}

	if len(categoryIDs) == 0 {
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_categories (user_id, category_id)
		 SELECT $1, c FROM unnest($2::bigint[]) AS c
		 ON CONFLICT DO NOTHING`,
		userID, pq.Array(categoryIDs))
	if err != nil {
		return mapPqErr(err)
	}

	return nil
}

// SetCalendarID stores the calendar id only if none is set yet and returns the
// id that is stored afterwards.
func (s *PostgresStore) SetCalendarID(ctx context.Context, userID int64, calendarID string) (string, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET google_calendar_id = $2, updated_at = now()
		 WHERE id = $1 AND google_calendar_id IS NULL`,
		userID, calendarID)
	if err != nil {
		return "", fmt.Errorf("update calendar id: %w", err)
	}

	var stored *string
	err = s.db.QueryRowContext(ctx, "SELECT google_calendar_id FROM users WHERE id = $1", userID).Scan(&stored)
	if err != nil {
		return "", mapPqErr(err)
	}
	if stored == nil {
		return "", ErrNotFound
	}

	return *stored, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context, spec query.Spec) (query.Page[model.User], error) {
	return fetchPage(ctx, s.db, "users AS t", userColumns, spec, scanUser)
}
