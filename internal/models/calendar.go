package models

import "time"

// CalendarDefinition names the adapter that serves a calendar and carries the
// adapter-specific settings (feed URL, audience filter, link template...).
type CalendarDefinition struct {
	ID         int64             `db:"definition_id" json:"id"`
	ClassName  string            `db:"class_name" json:"className"`
	Name       string            `db:"definition_name" json:"name"`
	Parameters map[string]string `db:"-" json:"parameters,omitempty"`
}

// Parameter returns the named setting or an empty string.
func (d CalendarDefinition) Parameter(key string) string {
	if d.Parameters == nil {
		return ""
	}
	return d.Parameters[key]
}

// CalendarConfiguration binds one calendar definition to a portal window.
type CalendarConfiguration struct {
	ID         int64              `db:"id" json:"id"`
	WindowID   string             `db:"window_id" json:"-"`
	Name       string             `db:"display_name" json:"name"`
	Displayed  bool               `db:"displayed" json:"displayed"`
	Position   int                `db:"position" json:"-"`
	Definition CalendarDefinition `db:"-" json:"calendarDefinition"`
}

// CalendarSet is the ordered list of configurations belonging to one window.
type CalendarSet struct {
	WindowID       string
	Configurations []CalendarConfiguration
}

// Occurrence is a single concrete event instance produced by an adapter.
type Occurrence struct {
	CalendarID  int64     `json:"calendarId"`
	UID         string    `json:"uid"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"allDay"`
}

// EventAudience restricts who a portal event is published to.
type EventAudience string

const (
	EventAudienceAll      EventAudience = "ALL"
	EventAudienceStaff    EventAudience = "STAFF"
	EventAudienceStudents EventAudience = "STUDENTS"
)

// PortalEvent is an event row maintained directly in the portal database.
type PortalEvent struct {
	ID          string        `db:"id" json:"id"`
	Title       string        `db:"title" json:"title"`
	Description string        `db:"description" json:"description"`
	EventType   string        `db:"event_type" json:"event_type"`
	StartAt     time.Time     `db:"start_at" json:"start_at"`
	EndAt       time.Time     `db:"end_at" json:"end_at"`
	AllDay      bool          `db:"all_day" json:"all_day"`
	Audience    EventAudience `db:"audience" json:"audience"`
	Location    *string       `db:"location" json:"location,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// PortalEventFilter narrows down portal events.
type PortalEventFilter struct {
	Start    time.Time
	End      time.Time
	Audience []EventAudience
}
