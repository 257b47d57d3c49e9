// Package calendar is the gateway to the tutors' Google calendars. Every call
// obtains a fresh access token from the credential store first.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/suguidance/guidance-go/internal/pkg/serr"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/credentials"
	"github.com/suguidance/guidance-go/internal/services/tutoring/internal/model"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	SessionSummary = "[SU Guidance] Session"

	DefaultName     = "SU Guidance"
	DefaultTimeZone = "America/Los_Angeles"

	responseAccepted = "accepted"
)

type tokenProvider interface {
	Token(ctx context.Context, userID int64) (credentials.Bundle, error)
}

type calendarIDStore interface {
	SetCalendarID(ctx context.Context, userID int64, calendarID string) (string, error)
}

type Config struct {
	Name     string
	TimeZone string
	// Endpoint overrides the API base URL when set.
	Endpoint string
}

// Event is the remote calendar event.
type Event = gcal.Event

// NormalizedEvent is the view of an event returned to clients.
type NormalizedEvent struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Summary   string    `json:"summary"`
}

type Gateway struct {
	tokens   tokenProvider
	store    calendarIDStore
	name     string
	timeZone string
	endpoint string
}

func NewGateway(tokens tokenProvider, store calendarIDStore, cfg Config) *Gateway {
	g := &Gateway{
		tokens:   tokens,
		store:    store,
		name:     cfg.Name,
		timeZone: cfg.TimeZone,
		endpoint: cfg.Endpoint,
	}
	if g.name == "" {
		g.name = DefaultName
	}
	if g.timeZone == "" {
		g.timeZone = DefaultTimeZone
	}
	return g
}

func (g *Gateway) service(ctx context.Context, owner model.User) (*gcal.Service, error) {
	b, err := g.tokens.Token(ctx, owner.ID)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithTokenSource(oauth2.StaticTokenSource(b.OAuth2()))}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("new calendar service: %w", err)
	}

	return svc, nil
}

// GetEvent fetches an event from the owner's calendar.
func (g *Gateway) GetEvent(ctx context.Context, owner model.User, eventID string) (*Event, error) {
	calID := owner.CalendarID()
	if calID == "" {
		return nil, serr.NotFound(nil, "Calendar w/ id not found").With("user_id", fmt.Sprint(owner.ID))
	}

	svc, err := g.service(ctx, owner)
	if err != nil {
		return nil, err
	}

	ev, err := svc.Events.Get(calID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, remoteErr(err, "Calendar w/ id not found", "event_id", eventID)
	}

	return ev, nil
}

// UpsertEvent marks ev as a tutoring session and adds attendee to it. The
// owner is seeded as an accepted attendee when the event has none.
func (g *Gateway) UpsertEvent(ctx context.Context, owner model.User, ev *Event, attendee string) (*Event, error) {
	calID := owner.CalendarID()
	if calID == "" {
		return nil, serr.NotFound(nil, "Calendar w/ id not found when creating")
	}

	svc, err := g.service(ctx, owner)
	if err != nil {
		return nil, err
	}

	patch := &gcal.Event{
		Summary:   SessionSummary,
		Attendees: mergeAttendees(ev.Attendees, owner.Email, attendee),
	}

	updated, err := svc.Events.Patch(calID, ev.Id, patch).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return nil, remoteErr(err, "Calendar w/ id not found when creating", "event_id", ev.Id)
	}

	if updated.Summary == "" {
		return nil, serr.Reconciliation(nil, "Event %s not updated", ev.Id)
	}

	return updated, nil
}

// remoteErr reports a missing or deleted resource as NotFound with msg. Other
// API statuses are Reconciliation errors and transport failures are returned
// wrapped.
func remoteErr(err error, msg, key, val string) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("calendar request: %w", err)
	}

	if apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone {
		return serr.NotFound(err, "%s", msg).With(key, val)
	}

	return serr.Reconciliation(err, "Calendar request failed with status %d", apiErr.Code).With(key, val)
}

// mergeAttendees returns a new list. Existing attendees are kept as they are
// and email is appended unless already present.
func mergeAttendees(existing []*gcal.EventAttendee, ownerEmail, email string) []*gcal.EventAttendee {
	out := make([]*gcal.EventAttendee, 0, len(existing)+1)
	if len(existing) == 0 {
		out = append(out, &gcal.EventAttendee{Email: ownerEmail, ResponseStatus: responseAccepted})
	} else {
		out = append(out, existing...)
	}

	for _, a := range out {
		if strings.EqualFold(a.Email, email) {
			return out
		}
	}

	return append(out, &gcal.EventAttendee{Email: email})
}

// EnsureCalendar returns the owner's calendar id, creating the calendar for
// tutors that have none. Non tutors get an empty id.
func (g *Gateway) EnsureCalendar(ctx context.Context, owner model.User) (string, error) {
	if id := owner.CalendarID(); id != "" {
		return id, nil
	}
	if !owner.IsTutor {
		return "", nil
	}

	svc, err := g.service(ctx, owner)
	if err != nil {
		return "", err
	}

	created, err := svc.Calendars.Insert(&gcal.Calendar{
		Summary:  g.name,
		TimeZone: g.timeZone,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar: %w", err)
	}

	id, err := g.store.SetCalendarID(ctx, owner.ID, created.Id)
	if err != nil {
		return "", fmt.Errorf("save calendar id: %w", err)
	}

	return id, nil
}

// ListEvents returns the single events of the owner's calendar that overlap
// [timeMin, timeMax], ordered by start time.
func (g *Gateway) ListEvents(ctx context.Context, owner model.User, timeMin, timeMax time.Time) ([]NormalizedEvent, error) {
	calID := owner.CalendarID()
	if calID == "" {
		return nil, serr.NotFound(nil, "Calendar w/ id not found")
	}

	svc, err := g.service(ctx, owner)
	if err != nil {
		return nil, err
	}

	cal, err := svc.Calendars.Get(calID).Context(ctx).Do()
	if err != nil {
		return nil, remoteErr(err, "Calendar w/ id not found", "calendar_id", calID)
	}
	if cal.Summary == "" {
		return nil, serr.NotFound(nil, "Calendar w/ id not found").With("calendar_id", calID)
	}

	call := svc.Events.List(calID).SingleEvents(true).OrderBy("startTime")
	if !timeMin.IsZero() {
		call = call.TimeMin(timeMin.Format(time.RFC3339))
	}
	if !timeMax.IsZero() {
		call = call.TimeMax(timeMax.Format(time.RFC3339))
	}

	events := []NormalizedEvent{}
	err = call.Pages(ctx, func(page *gcal.Events) error {
		tz := page.TimeZone
		if tz == "" {
			tz = cal.TimeZone
		}

		for _, ev := range page.Items {
			n, err := normalize(ev, tz)
			if err != nil {
				return err
			}
			events = append(events, n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	return events, nil
}

func normalize(ev *gcal.Event, tz string) (NormalizedEvent, error) {
	start, err := ParseEventTime(ev.Start, tz)
	if err != nil {
		return NormalizedEvent{}, fmt.Errorf("event %s start: %w", ev.Id, err)
	}

	end, err := ParseEventTime(ev.End, tz)
	if err != nil {
		return NormalizedEvent{}, fmt.Errorf("event %s end: %w", ev.Id, err)
	}

	return NormalizedEvent{ID: ev.Id, StartTime: start, EndTime: end, Summary: ev.Summary}, nil
}
