package service

import (
	"context"
	"time"

	"github.com/suguidance/guidance-go/internal/pkg/serr"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/calendar"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/credentials"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/notify"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/oauth"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/store"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/token"
)

// mockStore implements store.Store. Unset funcs behave like an empty database.
type mockStore struct {
	getUserFunc              func(ctx context.Context, id int64) (model.User, error)
	getUserByEmailFunc       func(ctx context.Context, email string) (model.User, error)
	createUserFunc           func(ctx context.Context, r store.CreateUserRequest) (model.User, error)
	updateUserFunc           func(ctx context.Context, u model.User) (model.User, error)
	setUserCategoriesFunc    func(ctx context.Context, userID int64, ids []int64) error
	listUsersFunc            func(ctx context.Context, spec query.Spec) (query.Page[model.User], error)
	getCategoryFunc          func(ctx context.Context, id int64) (model.Category, error)
	createCategoryFunc       func(ctx context.Context, c model.Category) (model.Category, error)
	updateCategoryFunc       func(ctx context.Context, c model.Category) (model.Category, error)
	deleteCategoryFunc       func(ctx context.Context, id int64) error
	listCategoriesFunc       func(ctx context.Context, spec query.Spec) (query.Page[model.Category], error)
	getReviewFunc            func(ctx context.Context, id int64) (model.Review, error)
	createReviewFunc         func(ctx context.Context, r model.Review) (model.Review, error)
	updateReviewFunc         func(ctx context.Context, r model.Review) (model.Review, error)
	deleteReviewFunc         func(ctx context.Context, id int64) error
	getReportFunc            func(ctx context.Context, id int64) (model.Report, error)
	createReportFunc         func(ctx context.Context, r model.Report) (model.Report, error)
	updateReportFunc         func(ctx context.Context, r model.Report) (model.Report, error)
	getSessionFunc           func(ctx context.Context, id int64) (model.Session, error)
	upsertSessionFunc        func(ctx context.Context, r store.UpsertSessionRequest) (int64, error)
	createStudentSessionFunc func(ctx context.Context, ss model.StudentSession) (int64, error)
	listSessionsFunc         func(ctx context.Context, spec query.Spec) (query.Page[model.Session], error)
	sessionStartTimesFunc    func(ctx context.Context, from, to time.Time) ([]time.Time, error)
	txCalls                  int
}

func (m *mockStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, id)
	}
	return model.User{}, store.ErrNotFound
}

func (m *mockStore) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	if m.getUserByEmailFunc != nil {
		return m.getUserByEmailFunc(ctx, email)
	}
	return model.User{}, store.ErrNotFound
}

func (m *mockStore) CreateUser(ctx context.Context, r store.CreateUserRequest) (model.User, error) {
	if m.createUserFunc != nil {
		return m.createUserFunc(ctx, r)
	}
	return model.User{}, nil
}

func (m *mockStore) UpdateUser(ctx context.Context, u model.User) (model.User, error) {
	if m.updateUserFunc != nil {
		return m.updateUserFunc(ctx, u)
	}
	return u, nil
}

func (m *mockStore) SetUserCategories(ctx context.Context, userID int64, ids []int64) error {
	if m.setUserCategoriesFunc != nil {
		return m.setUserCategoriesFunc(ctx, userID, ids)
	}
	return nil
}

func (m *mockStore) SetCalendarID(_ context.Context, _ int64, calendarID string) (string, error) {
	return calendarID, nil
}

func (m *mockStore) ListUsers(ctx context.Context, spec query.Spec) (query.Page[model.User], error) {
	if m.listUsersFunc != nil {
		return m.listUsersFunc(ctx, spec)
	}
	return query.Page[model.User]{}, nil
}

func (m *mockStore) GetCredentials(context.Context, int64) (string, error) {
	return "", store.ErrNotFound
}

func (m *mockStore) UpsertCredentials(context.Context, int64, string) error {
	return nil
}

func (m *mockStore) GetCategory(ctx context.Context, id int64) (model.Category, error) {
	if m.getCategoryFunc != nil {
		return m.getCategoryFunc(ctx, id)
	}
	return model.Category{}, store.ErrNotFound
}

func (m *mockStore) CreateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	if m.createCategoryFunc != nil {
		return m.createCategoryFunc(ctx, c)
	}
	return c, nil
}

func (m *mockStore) UpdateCategory(ctx context.Context, c model.Category) (model.Category, error) {
	if m.updateCategoryFunc != nil {
		return m.updateCategoryFunc(ctx, c)
	}
	return c, nil
}

func (m *mockStore) DeleteCategory(ctx context.Context, id int64) error {
	if m.deleteCategoryFunc != nil {
		return m.deleteCategoryFunc(ctx, id)
	}
	return nil
}

func (m *mockStore) ListCategories(ctx context.Context, spec query.Spec) (query.Page[model.Category], error) {
	if m.listCategoriesFunc != nil {
		return m.listCategoriesFunc(ctx, spec)
	}
	return query.Page[model.Category]{}, nil
}

func (m *mockStore) GetReview(ctx context.Context, id int64) (model.Review, error) {
	if m.getReviewFunc != nil {
		return m.getReviewFunc(ctx, id)
	}
	return model.Review{}, store.ErrNotFound
}

func (m *mockStore) CreateReview(ctx context.Context, r model.Review) (model.Review, error) {
	if m.createReviewFunc != nil {
		return m.createReviewFunc(ctx, r)
	}
	return r, nil
}

func (m *mockStore) UpdateReview(ctx context.Context, r model.Review) (model.Review, error) {
	if m.updateReviewFunc != nil {
		return m.updateReviewFunc(ctx, r)
	}
	return r, nil
}

func (m *mockStore) DeleteReview(ctx context.Context, id int64) error {
	if m.deleteReviewFunc != nil {
		return m.deleteReviewFunc(ctx, id)
	}
	return nil
}

func (m *mockStore) ListReviews(context.Context, query.Spec) (query.Page[model.Review], error) {
	return query.Page[model.Review]{}, nil
}

func (m *mockStore) GetReport(ctx context.Context, id int64) (model.Report, error) {
	if m.getReportFunc != nil {
		return m.getReportFunc(ctx, id)
	}
	return model.Report{}, store.ErrNotFound
}

func (m *mockStore) CreateReport(ctx context.Context, r model.Report) (model.Report, error) {
	if m.createReportFunc != nil {
		return m.createReportFunc(ctx, r)
	}
	return r, nil
}

func (m *mockStore) UpdateReport(ctx context.Context, r model.Report) (model.Report, error) {
	if m.updateReportFunc != nil {
		return m.updateReportFunc(ctx, r)
	}
	return r, nil
}

func (m *mockStore) DeleteReport(context.Context, int64) error {
	return nil
}

func (m *mockStore) ListReports(context.Context, query.Spec) (query.Page[model.Report], error) {
	return query.Page[model.Report]{}, nil
}

func (m *mockStore) GetSession(ctx context.Context, id int64) (model.Session, error) {
	if m.getSessionFunc != nil {
		return m.getSessionFunc(ctx, id)
	}
	return model.Session{}, store.ErrNotFound
}

func (m *mockStore) UpsertSession(ctx context.Context, r store.UpsertSessionRequest) (int64, error) {
	if m.upsertSessionFunc != nil {
		return m.upsertSessionFunc(ctx, r)
	}
	return 0, nil
}

func (m *mockStore) CreateStudentSession(ctx context.Context, ss model.StudentSession) (int64, error) {
	if m.createStudentSessionFunc != nil {
		return m.createStudentSessionFunc(ctx, ss)
	}
	return 0, nil
}

func (m *mockStore) ListSessions(ctx context.Context, spec query.Spec) (query.Page[model.Session], error) {
	if m.listSessionsFunc != nil {
		return m.listSessionsFunc(ctx, spec)
	}
	return query.Page[model.Session]{}, nil
}

func (m *mockStore) SessionStartTimes(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	if m.sessionStartTimesFunc != nil {
		return m.sessionStartTimesFunc(ctx, from, to)
	}
	return nil, nil
}

func (m *mockStore) WithTx(_ context.Context, fn func(tx store.Store) error) error {
	m.txCalls++
	return fn(m)
}

type mockAuthenticator struct {
	loginURLFunc func(env oauth.Env, provider string) (string, error)
	exchangeFunc func(ctx context.Context, env oauth.Env, provider, code, state string) (oauth.User, error)
	swapFunc     func(ctx context.Context, provider, code, redirectURI string) (oauth.User, error)
}

func (m *mockAuthenticator) LoginURL(env oauth.Env, provider string) (string, error) {
	return m.loginURLFunc(env, provider)
}

func (m *mockAuthenticator) Exchange(ctx context.Context, env oauth.Env, provider, code, state string) (oauth.User, error) {
	return m.exchangeFunc(ctx, env, provider, code, state)
}

func (m *mockAuthenticator) Swap(ctx context.Context, provider, code, redirectURI string) (oauth.User, error) {
	return m.swapFunc(ctx, provider, code, redirectURI)
}

type mockIssuer struct {
	issueFunc    func(subject string) (string, error)
	validateFunc func(raw string) (token.Claims, error)
}

func (m *mockIssuer) Issue(subject string) (string, error) {
	return m.issueFunc(subject)
}

func (m *mockIssuer) Validate(raw string) (token.Claims, error) {
	return m.validateFunc(raw)
}

type mockOTC struct {
	createCodeFunc func(ctx context.Context, ts token.Pair) (string, error)
	redeemCodeFunc func(ctx context.Context, code string) (token.Pair, error)
}

func (m *mockOTC) CreateCode(ctx context.Context, ts token.Pair) (string, error) {
	return m.createCodeFunc(ctx, ts)
}

func (m *mockOTC) RedeemCode(ctx context.Context, code string) (token.Pair, error) {
	return m.redeemCodeFunc(ctx, code)
}

type mockCredentials struct {
	persisted map[int64]credentials.Bundle
	getErr    error
}

func (m *mockCredentials) Get(_ context.Context, userID int64) (credentials.Bundle, error) {
	if m.getErr != nil {
		return credentials.Bundle{}, m.getErr
	}
	b, ok := m.persisted[userID]
	if !ok {
		return credentials.Bundle{}, serr.NotFound(nil, "Credentials for user %d not found", userID)
	}
	return b, nil
}

func (m *mockCredentials) Persist(_ context.Context, userID int64, b credentials.Bundle) error {
	if m.persisted == nil {
		m.persisted = make(map[int64]credentials.Bundle)
	}
	m.persisted[userID] = b
	return nil
}

type mockCalendar struct {
	ensureCalendarFunc func(ctx context.Context, owner model.User) (string, error)
	listEventsFunc     func(ctx context.Context, owner model.User, timeMin, timeMax time.Time) ([]calendar.NormalizedEvent, error)
	getEventFunc       func(ctx context.Context, owner model.User, eventID string) (*calendar.Event, error)
	upsertEventFunc    func(ctx context.Context, owner model.User, ev *calendar.Event, attendee string) (*calendar.Event, error)
	calls              int
}

func (m *mockCalendar) EnsureCalendar(ctx context.Context, owner model.User) (string, error) {
	m.calls++
	return m.ensureCalendarFunc(ctx, owner)
}

func (m *mockCalendar) ListEvents(ctx context.Context, owner model.User, timeMin, timeMax time.Time) ([]calendar.NormalizedEvent, error) {
	m.calls++
	return m.listEventsFunc(ctx, owner, timeMin, timeMax)
}

func (m *mockCalendar) GetEvent(ctx context.Context, owner model.User, eventID string) (*calendar.Event, error) {
	m.calls++
	return m.getEventFunc(ctx, owner, eventID)
}

func (m *mockCalendar) UpsertEvent(ctx context.Context, owner model.User, ev *calendar.Event, attendee string) (*calendar.Event, error) {
	m.calls++
	return m.upsertEventFunc(ctx, owner, ev, attendee)
}

type mockNotifier struct {
	recipients []notify.Recipient
	msg        notify.Notification
}

func (m *mockNotifier) NotifyAll(_ context.Context, recipients []notify.Recipient, msg notify.Notification) int {
	m.recipients = append(m.recipients, recipients...)
	m.msg = msg
	return len(recipients)
}

type memEnv map[string]string

func (e memEnv) Save(key, val string) error {
	e[key] = val
	return nil
}

func (e memEnv) Load(key string) (string, error) {
	return e[key], nil
}
