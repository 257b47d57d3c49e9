package store

import (
	"context"
	"errors"
	"time"

	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrExists reports a unique constraint violation.
	ErrExists = errors.New("already exists")
	// ErrReference reports a foreign key violation.
	ErrReference = errors.New("referenced row missing or still in use")
	// ErrInvalid reports a check constraint violation.
	ErrInvalid = errors.New("constraint violation")
)

type Store interface {
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, r CreateUserRequest) (model.User, error)
	UpdateUser(ctx context.Context, u model.User) (model.User, error)
	SetUserCategories(ctx context.Context, userID int64, categoryIDs []int64) error
	SetCalendarID(ctx context.Context, userID int64, calendarID string) (string, error)
	ListUsers(ctx context.Context, spec query.Spec) (query.Page[model.User], error)

	GetCredentials(ctx context.Context, userID int64) (string, error)
	UpsertCredentials(ctx context.Context, userID int64, blob string) error

	GetCategory(ctx context.Context, id int64) (model.Category, error)
	CreateCategory(ctx context.Context, c model.Category) (model.Category, error)
	UpdateCategory(ctx context.Context, c model.Category) (model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListCategories(ctx context.Context, spec query.Spec) (query.Page[model.Category], error)

	GetReview(ctx context.Context, id int64) (model.Review, error)
	CreateReview(ctx context.Context, r model.Review) (model.Review, error)
	UpdateReview(ctx context.Context, r model.Review) (model.Review, error)
	DeleteReview(ctx context.Context, id int64) error
	ListReviews(ctx context.Context, spec query.Spec) (query.Page[model.Review], error)

	GetReport(ctx context.Context, id int64) (model.Report, error)
	CreateReport(ctx context.Context, r model.Report) (model.Report, error)
	UpdateReport(ctx context.Context, r model.Report) (model.Report, error)
	DeleteReport(ctx context.Context, id int64) error
	ListReports(ctx context.Context, spec query.Spec) (query.Page[model.Report], error)

	GetSession(ctx context.Context, id int64) (model.Session, error)
	UpsertSession(ctx context.Context, r UpsertSessionRequest) (int64, error)
	CreateStudentSession(ctx context.Context, ss model.StudentSession) (int64, error)
	ListSessions(ctx context.Context, spec query.Spec) (query.Page[model.Session], error)
	SessionStartTimes(ctx context.Context, from, to time.Time) ([]time.Time, error)

	WithTx(ctx context.Context, fn func(tx Store) error) error
}

type CreateUserRequest struct {
	Email      string
	FirstName  string
	LastName   string
	ProfileURL string
}

type UpsertSessionRequest struct {
	TutorID   int64
	EventID   string
	StartTime *time.Time
}
