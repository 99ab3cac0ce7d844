package models

import "time"

// Preference is one stored portlet preference for a window.
type Preference struct {
	WindowID  string    `db:"window_id" json:"window_id"`
	Name      string    `db:"name" json:"name"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Preference names read by the calendar view.
const (
	PreferenceDisablePreferences    = "disablePreferences"
	PreferenceDisableAdministration = "disableAdministration"
	PreferenceShowDatePicker        = "showDatePicker"
	PreferenceDays                  = "days"
	PreferenceTimezone              = "timezone"
)

// PortletPreferences are the parsed, defaulted preferences of one window.
type PortletPreferences struct {
	DisablePreferences    bool
	DisableAdministration bool
	ShowDatePicker        string
	Days                  int
	Timezone              string
}
