package model

import "time"

type ReportType string

const (
	ReportUser   ReportType = "user"
	ReportReview ReportType = "review"
)

func (t ReportType) Valid() bool {
	return t == ReportUser || t == ReportReview
}

type Model struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type User struct {
	Model
	ID               int64   `json:"id"`
	Email            string  `json:"email"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	ProfileURL       string  `json:"profile_url"`
	Description      *string `json:"description"`
	IsTutor          bool    `json:"is_tutor"`
	IsSuperuser      bool    `json:"is_superuser"`
	GoogleCalendarID *string `json:"google_calendar_id"`
	CategoryIDs      []int64 `json:"categories_ids"`
}

// CalendarID returns the external calendar id or an empty string.
func (u User) CalendarID() string {
	if u.GoogleCalendarID == nil {
		return ""
	}
	return *u.GoogleCalendarID
}

type Category struct {
	Model
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Locked bool   `json:"locked"`
}

type Session struct {
	Model
	ID         int64      `json:"id"`
	TutorID    int64      `json:"tutor_id"`
	StartTime  *time.Time `json:"start_time"`
	EventID    string     `json:"event_id"`
	StudentIDs []int64    `json:"student_ids"`
}

type StudentSession struct {
	ID         int64 `json:"id"`
	SessionID  int64 `json:"session_id"`
	UserID     int64 `json:"user_id"`
	CategoryID int64 `json:"category_id"`
}

type Review struct {
	Model
	ID         int64  `json:"id"`
	ReviewerID int64  `json:"reviewer_id"`
	RevieweeID int64  `json:"reviewee_id"`
	Rating     int    `json:"rating"`
	Content    string `json:"content"`
}

type Report struct {
	Model
	ID          int64      `json:"id"`
	Type        ReportType `json:"type"`
	ReferenceID int64      `json:"reference_id"`
	UserID      int64      `json:"user_id"`
	Reason      string     `json:"reason"`
	Description *string    `json:"description"`
}
