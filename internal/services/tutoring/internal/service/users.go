package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/suguidance/guidance-go/internal/pkg/fn"
	"github.com/suguidance/guidance-go/internal/pkg/serr"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/calendar"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/store"
)

type scheduleGateway interface {
	calendarEnsurer
	ListEvents(ctx context.Context, owner model.User, timeMin, timeMax time.Time) ([]calendar.NormalizedEvent, error)
}

// Users serves profile reads and updates.
type Users struct {
	store     store.Store
	calendars scheduleGateway
}

func NewUsers(st store.Store, calendars scheduleGateway) *Users {
	return &Users{store: st, calendars: calendars}
}

// Me reloads the caller so the response reflects the latest row.
func (s *Users) Me(ctx context.Context, caller model.User) (model.User, error) {
	return s.Get(ctx, caller.ID)
}

func (s *Users) Get(ctx context.Context, id int64) (model.User, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return model.User{}, notFoundOr(err, "get user", "User %d not found", id)
	}
	return u, nil
}

func (s *Users) List(ctx context.Context, params url.Values) (query.Page[model.User], error) {
	spec, err := parseSpec(query.Users, params)
	if err != nil {
		return query.Page[model.User]{}, err
	}

	page, err := s.store.ListUsers(ctx, spec)
	if err != nil {
		return page, fmt.Errorf("list users: %w", err)
	}
	return page, nil
}

type UpdateMeRequest struct {
	Description *string `json:"description"`
	IsTutor     *bool   `json:"is_tutor"`
}

// UpdateMe patches the caller's own profile. Becoming a tutor provisions the
// tutoring calendar.
func (s *Users) UpdateMe(ctx context.Context, caller model.User, r UpdateMeRequest) (model.User, error) {
	u, err := s.Get(ctx, caller.ID)
	if err != nil {
		return model.User{}, err
	}

	if r.Description != nil {
		u.Description = r.Description
	}
	if r.IsTutor != nil {
		u.IsTutor = *r.IsTutor
	}

	u, err = s.store.UpdateUser(ctx, u)
	if err != nil {
		return model.User{}, notFoundOr(err, "update user", "User %d not found", caller.ID)
	}

	return s.ensureCalendar(ctx, u)
}

type UpdateUserRequest struct {
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	ProfileURL  string  `json:"profile_url"`
	Description *string `json:"description"`
	IsTutor     bool    `json:"is_tutor"`
	IsSuperuser bool    `json:"is_superuser"`
	CategoryIDs []int64 `json:"categories_ids"`
}

// Update replaces a user's editable fields and category set.
func (s *Users) Update(ctx context.Context, id int64, r UpdateUserRequest) (model.User, error) {
	var updated model.User
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		u, err := tx.GetUser(ctx, id)
		if err != nil {
			return notFoundOr(err, "get user", "User %d not found", id)
		}

		u.FirstName = r.FirstName
		u.LastName = r.LastName
		u.ProfileURL = r.ProfileURL
		u.Description = r.Description
		u.IsTutor = r.IsTutor
		u.IsSuperuser = r.IsSuperuser

		if _, err := tx.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("update user: %w", err)
		}

		if err := tx.SetUserCategories(ctx, id, fn.Unique(r.CategoryIDs)); err != nil {
			if errors.Is(err, store.ErrReference) {
				return serr.NotFound(err, "Category not found")
			}
			return fmt.Errorf("set categories: %w", err)
		}

		updated, err = tx.GetUser(ctx, id)
		return err
	})
	if err != nil {
		return model.User{}, err
	}

	return s.ensureCalendar(ctx, updated)
}

// Schedule lists the tutor's upcoming calendar events in [timeMin, timeMax].
func (s *Users) Schedule(ctx context.Context, id int64, timeMin, timeMax time.Time) ([]calendar.NormalizedEvent, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !u.IsTutor {
		return nil, serr.NotAllowed(nil, "User is not a tutor").With("user_id", fmt.Sprint(id))
	}

	events, err := s.calendars.ListEvents(ctx, u, timeMin, timeMax)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *Users) ensureCalendar(ctx context.Context, u model.User) (model.User, error) {
	if !u.IsTutor || u.CalendarID() != "" {
		return u, nil
	}

	id, err := s.calendars.EnsureCalendar(ctx, u)
	if err != nil {
		return model.User{}, fmt.Errorf("ensure calendar: %w", err)
	}
	u.GoogleCalendarID = &id

	return u, nil
}
