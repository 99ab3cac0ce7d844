package models

import "time"

// HiddenCalendars marks calendar ids the user has hidden for this session.
type HiddenCalendars map[int64]bool

// Hidden reports whether id carries a truthy marker.
func (h HiddenCalendars) Hidden(id int64) bool {
	return h != nil && h[id]
}

// Clone returns an independent copy.
func (h HiddenCalendars) Clone() HiddenCalendars {
	out := make(HiddenCalendars, len(h))
	for id, marked := range h {
		out[id] = marked
	}
	return out
}

// SessionState is the per-user calendar state kept between requests.
// StartDate and Days are nil until the session has been initialized.
type SessionState struct {
	StartDate       *time.Time
	Days            *int
	Timezone        string
	HiddenCalendars HiddenCalendars
}

// Initialized reports whether the fallback interval can be computed.
func (s *SessionState) Initialized() bool {
	return s != nil && s.StartDate != nil && s.Days != nil && s.Timezone != ""
}
