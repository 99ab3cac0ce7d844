package dto

import (
	"time"

	"github.com/noah-isme/sma-calendar-portlet/internal/models"
)

// View names returned with the calendar view model.
const (
	ViewWide   = "calendarWideView"
	ViewNarrow = "calendarNarrowView"
)

// CalendarViewRequest carries everything needed to render one portlet view.
// Session is the state loaded for the request and is updated in place.
type CalendarViewRequest struct {
	WindowID     string
	SessionID    string
	Session      *models.SessionState
	Interval     string
	HideCalendar string
	ShowCalendar string
	WindowState  string
	Guest        bool
}

// CalendarViewModel is the model handed to the portal renderer.
type CalendarViewModel struct {
	Guest                 bool                           `json:"guest"`
	ShowDatePicker        string                         `json:"showDatePicker"`
	StartDate             time.Time                      `json:"startDate"`
	EndDate               time.Time                      `json:"endDate"`
	Days                  int                            `json:"days"`
	Today                 time.Time                      `json:"today"`
	Tomorrow              time.Time                      `json:"tomorrow"`
	Calendars             []models.CalendarConfiguration `json:"calendars"`
	Colors                map[int64]int                  `json:"colors"`
	Links                 map[int64]string               `json:"links"`
	HiddenCalendars       models.HiddenCalendars         `json:"hiddenCalendars"`
	Timezone              string                         `json:"timezone"`
	DisablePreferences    bool                           `json:"disablePreferences"`
	DisableAdministration bool                           `json:"disableAdministration"`
}

// CalendarViewResponse pairs the selected view with its model.
type CalendarViewResponse struct {
	View  string            `json:"view"`
	Model CalendarViewModel `json:"model"`
}

// CalendarEventsRequest selects the events of one window.
type CalendarEventsRequest struct {
	WindowID string
	Session  *models.SessionState
	Interval string
}

// CalendarError reports a calendar whose events could not be retrieved.
type CalendarError struct {
	CalendarID int64  `json:"calendarId"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// CalendarEventsResponse lists occurrences of all visible calendars.
type CalendarEventsResponse struct {
	StartDate time.Time           `json:"startDate"`
	EndDate   time.Time           `json:"endDate"`
	Timezone  string              `json:"timezone"`
	Colors    map[int64]int       `json:"colors"`
	Events    []models.Occurrence `json:"events"`
	Errors    []CalendarError     `json:"errors"`
}

// UpdateSessionRangeRequest changes the displayed range of the session.
type UpdateSessionRangeRequest struct {
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	Days      int    `json:"days" validate:"required,min=1,max=366"`
	Timezone  string `json:"timezone" validate:"omitempty,timezone"`
}

// SessionRangeResponse echoes the stored range.
type SessionRangeResponse struct {
	StartDate string `json:"startDate"`
	Days      int    `json:"days"`
	Timezone  string `json:"timezone"`
}
