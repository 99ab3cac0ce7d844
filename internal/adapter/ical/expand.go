package ical

import (
	"context"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
)

const (
	maxOccurrencesPerEvent = 5000
	ctxCheckEvery          = 256
)

// expand turns feed events into occurrences overlapping iv, expressed in the
// zone of iv.Start. Overriding instances (RECURRENCE-ID) replace the
// occurrence they point at. Recurrences are walked lazily and the walk stops
// when ctx is done.
func expand(ctx context.Context, calendarID int64, events []feedEvent, iv interval.Interval, logger *zap.Logger) ([]models.Occurrence, error) {
	loc := iv.Start.Location()
	overridden := map[string][]time.Time{}
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overridden[ev.UID] = append(overridden[ev.UID], *ev.RecurrenceID)
		}
	}

	out := make([]models.Occurrence, 0)
	for _, ev := range events {
		if ev.RRule == "" || ev.RecurrenceID != nil {
			start, end := span(ev, ev.Start, ev.End, loc)
			if iv.Overlaps(start, end) {
				out = append(out, occurrence(calendarID, ev, start, end))
			}
			continue
		}

		rule, err := rrule.StrToRRule(ev.RRule)
		if err != nil {
			logger.Warn("invalid RRULE", zap.String("uid", ev.UID), zap.String("rrule", ev.RRule), zap.Error(err))
			continue
		}
		rule.DTStart(ev.Start)

		var set rrule.Set
		set.RRule(rule)
		for _, ex := range ev.ExDates {
			set.ExDate(ex.In(ev.Start.Location()))
		}
		for _, rid := range overridden[ev.UID] {
			set.ExDate(rid.In(ev.Start.Location()))
		}

		duration := ev.End.Sub(ev.Start)
		from := iv.Start.Add(-duration).In(ev.Start.Location())
		to := iv.End.In(ev.Start.Location())
		next := set.Iterator()
		emitted := 0
		for steps := 1; ; steps++ {
			if steps%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			at, ok := next()
			if !ok || at.After(to) {
				break
			}
			if at.Before(from) {
				continue
			}
			if emitted == maxOccurrencesPerEvent {
				logger.Warn("recurrence truncated", zap.String("uid", ev.UID), zap.Int("cap", maxOccurrencesPerEvent))
				break
			}
			start, end := span(ev, at, at.Add(duration), loc)
			if iv.Overlaps(start, end) {
				out = append(out, occurrence(calendarID, ev, start, end))
				emitted++
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// span expresses an instance in loc. All-day instances keep their calendar
// dates and become midnight-to-midnight in loc.
func span(ev feedEvent, start, end time.Time, loc *time.Location) (time.Time, time.Time) {
	if !ev.AllDay {
		return start.In(loc), end.In(loc)
	}
	sy, sm, sd := start.Date()
	days := int(end.Sub(start).Hours()+12) / 24
	if days < 1 {
		days = 1
	}
	midnight := time.Date(sy, sm, sd, 0, 0, 0, 0, loc)
	return midnight, midnight.AddDate(0, 0, days)
}

func occurrence(calendarID int64, ev feedEvent, start, end time.Time) models.Occurrence {
	return models.Occurrence{
		CalendarID:  calendarID,
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Start:       start,
		End:         end,
		AllDay:      ev.AllDay,
	}
}
