package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
)

const sessionColumns = `t.id, t.tutor_id, t.start_time, t.event_id, t.created_at, t.updated_at,
	ARRAY(SELECT ss.user_id FROM student_sessions ss WHERE ss.session_id = t.id ORDER BY ss.id)`

func scanSession(row scanner) (model.Session, error) {
	var s model.Session
	err := row.Scan(&s.ID, &s.TutorID, &s.StartTime, &s.EventID, &s.CreatedAt, &s.UpdatedAt, pq.Array(&s.StudentIDs))
	if err == nil && s.StartTime != nil {
		utc := s.StartTime.UTC()
		s.StartTime = &utc
	}
	return s, err
}

func (s *PostgresStore) GetSession(ctx context.Context, id int64) (model.Session, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+sessionColumns+" FROM sessions AS t WHERE t.id = $1", id)

	sess, err := scanSession(row)
	if err != nil {
		return sess, mapPqErr(err)
	}

	return sess, nil
}

// UpsertSession returns the id of the session keyed by (tutor, event), creating
// it when missing. An existing session gets its start time overwritten.
func (s *PostgresStore) UpsertSession(ctx context.Context, r UpsertSessionRequest) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO sessions (tutor_id, event_id, start_time) VALUES ($1, $2, $3)
		 ON CONFLICT (tutor_id, event_id) DO NOTHING
		 RETURNING id`,
		r.TutorID, r.EventID, r.StartTime).Scan(&id)
	if err == nil {
		return id, nil
	}

	if mapped := mapPqErr(err); !errors.Is(mapped, ErrNotFound) {
		return 0, fmt.Errorf("insert session: %w", mapped)
	}

	err = s.db.QueryRowContext(ctx,
		`UPDATE sessions SET start_time = $3, updated_at = now()
		 WHERE tutor_id = $1 AND event_id = $2
		 RETURNING id`,
		r.TutorID, r.EventID, r.StartTime).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("update session: %w", mapPqErr(err))
	}

	return id, nil
}

// CreateStudentSession attaches a student to a session. A second booking of the
// same student yields ErrExists.
func (s *PostgresStore) CreateStudentSession(ctx context.Context, ss model.StudentSession) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO student_sessions (session_id, user_id, category_id) VALUES ($1, $2, $3)
		 RETURNING id`,
		ss.SessionID, ss.UserID, ss.CategoryID).Scan(&id)
	if err != nil {
		return 0, mapPqErr(err)
	}

	return id, nil
}

func (s *PostgresStore) ListSessions(ctx context.Context, spec query.Spec) (query.Page[model.Session], error) {
	return fetchPage(ctx, s.db, "sessions AS t", sessionColumns, spec, scanSession)
}

// SessionStartTimes returns the start times within [from, to].
func (s *PostgresStore) SessionStartTimes(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT start_time FROM sessions
		 WHERE start_time IS NOT NULL AND start_time >= $1 AND start_time <= $2
		 ORDER BY start_time`,
		from, to)
	if err != nil {
		return nil, fmt.Errorf("query start times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		times = append(times, t.UTC())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return times, nil
}
