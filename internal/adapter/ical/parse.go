package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"go.uber.org/zap"
)

// feedEvent is a VEVENT reduced to what expansion needs.
type feedEvent struct {
	UID          string
	Summary      string
	Description  string
	Location     string
	Start        time.Time
	End          time.Time
	AllDay       bool
	RRule        string
	ExDates      []time.Time
	RecurrenceID *time.Time
}

func parseFeed(body string, logger *zap.Logger) ([]feedEvent, error) {
	cal, err := ics.ParseCalendar(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	events := make([]feedEvent, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := parseEvent(ve)
		if err != nil {
			logger.Debug("skipping vevent", zap.Error(err))
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseEvent(ve *ics.VEvent) (feedEvent, error) {
	var ev feedEvent

	uid := ve.GetProperty(ics.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, fmt.Errorf("vevent without UID")
	}
	ev.UID = uid.Value
	ev.Summary = propertyValue(ve, ics.ComponentPropertySummary)
	ev.Description = propertyValue(ve, ics.ComponentPropertyDescription)
	ev.Location = propertyValue(ve, ics.ComponentPropertyLocation)

	dtStart := ve.GetProperty(ics.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, fmt.Errorf("vevent %s without DTSTART", ev.UID)
	}
	start, err := ve.GetStartAt()
	if err != nil {
		return ev, fmt.Errorf("vevent %s: %w", ev.UID, err)
	}
	ev.Start = start
	ev.AllDay = isDateValue(dtStart.Value, dtStart.ICalParameters)

	if end, err := ve.GetEndAt(); err == nil {
		ev.End = end
	} else if ev.AllDay {
		ev.End = ev.Start.AddDate(0, 0, 1)
	} else {
		ev.End = ev.Start
	}

	if rule := ve.GetProperty(ics.ComponentPropertyRrule); rule != nil {
		ev.RRule = rule.Value
	}
	for _, prop := range ve.GetProperties(ics.ComponentPropertyExdate) {
		for _, part := range strings.Split(prop.Value, ",") {
			if t, err := parseValue(strings.TrimSpace(part), prop.ICalParameters, ev.Start.Location()); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}
	if rid := ve.GetProperty(ics.ComponentProperty("RECURRENCE-ID")); rid != nil {
		if t, err := parseValue(rid.Value, rid.ICalParameters, ev.Start.Location()); err == nil {
			ev.RecurrenceID = &t
		}
	}
	return ev, nil
}

func propertyValue(ve *ics.VEvent, prop ics.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

func isDateValue(value string, params map[string][]string) bool {
	if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return value != "" && !strings.Contains(value, "T")
}

// parseValue reads DATE and DATE-TIME values, honouring TZID when present.
func parseValue(value string, params map[string][]string, fallback *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty value")
	}
	loc := fallback
	if tz, ok := params["TZID"]; ok && len(tz) > 0 {
		if l, err := time.LoadLocation(tz[0]); err == nil {
			loc = l
		}
	}
	switch {
	case strings.HasSuffix(value, "Z"):
		return time.Parse("20060102T150405Z", value)
	case strings.Contains(value, "T"):
		return time.ParseInLocation("20060102T150405", value, loc)
	default:
		return time.ParseInLocation("20060102", value, loc)
	}
}
