package calendar

import (
	"errors"
	"fmt"
	"time"
	_ "time/tzdata"

	gcal "google.golang.org/api/calendar/v3"
)

const dateLayout = "2006-01-02"

// ParseEventTime returns the instant an event boundary denotes, in UTC.
// All-day events start at midnight in the event's time zone, or in fallbackTZ
// when the event has none.
func ParseEventTime(dt *gcal.EventDateTime, fallbackTZ string) (time.Time, error) {
	if dt == nil {
		return time.Time{}, errors.New("missing event time")
	}

	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse date time: %w", err)
		}
		return t.UTC(), nil
	}

	if dt.Date == "" {
		return time.Time{}, errors.New("event time has neither date nor dateTime")
	}

	tz := dt.TimeZone
	if tz == "" {
		tz = fallbackTZ
	}

	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return time.Time{}, fmt.Errorf("load time zone %q: %w", tz, err)
		}
		loc = l
	}

	t, err := time.ParseInLocation(dateLayout, dt.Date, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date: %w", err)
	}

	return t.UTC(), nil
}
