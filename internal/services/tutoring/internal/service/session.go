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
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/notify"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/query"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/store"
)

const (
	statsWindow = 7 * 24 * time.Hour
	dayLayout   = "2006-01-02"
)

type eventGateway interface {
	GetEvent(ctx context.Context, owner model.User, eventID string) (*calendar.Event, error)
	UpsertEvent(ctx context.Context, owner model.User, ev *calendar.Event, attendee string) (*calendar.Event, error)
}

type categoryLookup interface {
	Get(ctx context.Context, id int64) (model.Category, error)
}

type notifier interface {
	NotifyAll(ctx context.Context, recipients []notify.Recipient, msg notify.Notification) int
}

type SchedulerConfig struct {
	// TimeZone is applied to event times that carry no offset.
	TimeZone string
}

// Scheduler books students onto tutor calendar events.
type Scheduler struct {
	store      store.Store
	events     eventGateway
	categories categoryLookup
	notifier   notifier
	tz         string
	now        func() time.Time
}

func NewScheduler(st store.Store, events eventGateway, categories categoryLookup, n notifier, cfg SchedulerConfig) *Scheduler {
	tz := cfg.TimeZone
	if tz == "" {
		tz = calendar.DefaultTimeZone
	}

	return &Scheduler{
		store:      st,
		events:     events,
		categories: categories,
		notifier:   n,
		tz:         tz,
		now:        time.Now,
	}
}

type BookRequest struct {
	TutorID    int64  `json:"tutor_id"`
	CategoryID int64  `json:"category_id"`
	EventID    string `json:"event_id"`
}

// Book adds the student as an attendee of the tutor's event and records the
// booking. The session row is shared by every student of the same event.
func (s *Scheduler) Book(ctx context.Context, student model.User, r BookRequest) (model.Session, error) {
	if r.EventID == "" {
		return model.Session{}, serr.BadRequest(nil, "Event id is required")
	}

	tutor, err := s.store.GetUser(ctx, r.TutorID)
	if err != nil {
		return model.Session{}, notFoundOr(err, "get tutor", "Tutor %d not found", r.TutorID)
	}

	if _, err := s.categories.Get(ctx, r.CategoryID); err != nil {
		return model.Session{}, err
	}

	ev, err := s.events.GetEvent(ctx, tutor, r.EventID)
	if err != nil {
		return model.Session{}, err
	}

	updated, err := s.events.UpsertEvent(ctx, tutor, ev, student.Email)
	if err != nil {
		return model.Session{}, err
	}

	start, err := s.startTime(updated)
	if err != nil {
		return model.Session{}, serr.Reconciliation(err, "Event %s has an invalid start", r.EventID)
	}

	var sessionID int64
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		id, err := tx.UpsertSession(ctx, store.UpsertSessionRequest{
			TutorID:   tutor.ID,
			EventID:   r.EventID,
			StartTime: start,
		})
		if err != nil {
			return fmt.Errorf("upsert session: %w", err)
		}

		_, err = tx.CreateStudentSession(ctx, model.StudentSession{
			SessionID:  id,
			UserID:     student.ID,
			CategoryID: r.CategoryID,
		})
		if err != nil {
			if errors.Is(err, store.ErrExists) {
				return serr.Conflict(err, "Session already booked")
			}
			return fmt.Errorf("create student session: %w", err)
		}

		sessionID = id
		return nil
	})
	if err != nil {
		return model.Session{}, err
	}

	recipients := fn.Map([]model.User{tutor, student}, func(u model.User) notify.Recipient {
		return notify.Recipient{UserID: u.ID, Email: u.Email}
	})
	s.notifier.NotifyAll(ctx, recipients, bookedNotification(tutor, student, start))

	return s.Get(ctx, sessionID)
}

func (s *Scheduler) startTime(ev *calendar.Event) (*time.Time, error) {
	if ev == nil || ev.Start == nil {
		return nil, nil
	}

	t, err := calendar.ParseEventTime(ev.Start, s.tz)
	if err != nil {
		return nil, err
	}

	t = t.UTC().Truncate(time.Minute)
	return &t, nil
}

func (s *Scheduler) Get(ctx context.Context, id int64) (model.Session, error) {
	sess, err := s.store.GetSession(ctx, id)
	if err != nil {
		return model.Session{}, notFoundOr(err, "get session", "Session %d not found", id)
	}
	return sess, nil
}

func (s *Scheduler) List(ctx context.Context, params url.Values) (query.Page[model.Session], error) {
	spec, err := parseSpec(query.Sessions, params)
	if err != nil {
		return query.Page[model.Session]{}, err
	}

	page, err := s.store.ListSessions(ctx, spec)
	if err != nil {
		return page, fmt.Errorf("list sessions: %w", err)
	}
	return page, nil
}

// WeeklyStats counts sessions per UTC day over the last seven days.
func (s *Scheduler) WeeklyStats(ctx context.Context) (map[string]int, error) {
	now := s.now().UTC()

	times, err := s.store.SessionStartTimes(ctx, now.Add(-statsWindow), now)
	if err != nil {
		return nil, fmt.Errorf("session start times: %w", err)
	}

	return countByDay(times), nil
}

func countByDay(times []time.Time) map[string]int {
	counts := make(map[string]int)
	for _, t := range times {
		counts[t.UTC().Format(dayLayout)]++
	}
	return counts
}

func bookedNotification(tutor, student model.User, start *time.Time) notify.Notification {
	when := "an unscheduled time"
	if start != nil {
		when = start.Format(time.RFC3339)
	}

	return notify.Notification{
		Title: "Session booked",
		Body: fmt.Sprintf("%s %s booked a session with %s %s at %s",
			student.FirstName, student.LastName, tutor.FirstName, tutor.LastName, when),
	}
}
