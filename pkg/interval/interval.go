// Package interval models the half-open [start, end) display window of the
// calendar and parses its ISO-8601 serialized form.
package interval

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the serialized form of each instant, millisecond precision.
const Layout = "2006-01-02T15:04:05.000Z07:00"

const day = 24 * time.Hour

// MaxDays bounds how long a displayed interval may be.
const MaxDays = 366

// maxPeriodComponent keeps every period component clear of time.Duration and
// AddDate overflow.
const maxPeriodComponent = 1_000_000

// ErrMalformed is returned for any interval string that cannot be parsed.
var ErrMalformed = errors.New("malformed interval")

// Interval is a half-open time range. Start is never after End.
type Interval struct {
	Start time.Time
	End   time.Time
}

// New builds an interval, rejecting an end before the start.
func New(start, end time.Time) (Interval, error) {
	if end.Before(start) {
		return Interval{}, fmt.Errorf("%w: end %s is before start %s", ErrMalformed, end.Format(Layout), start.Format(Layout))
	}
	return Interval{Start: start, End: end}, nil
}

// FromDays returns [start, start+days) counted in calendar days of start's zone.
func FromDays(start time.Time, days int) Interval {
	return Interval{Start: start, End: start.AddDate(0, 0, days)}
}

// Duration is the elapsed time between start and end.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Days is the duration in whole standard days, truncating.
func (i Interval) Days() int {
	return int(i.Duration() / day)
}

// Overlaps reports whether [start, end) intersects the interval. A zero-length
// event at the interval start counts as inside.
func (i Interval) Overlaps(start, end time.Time) bool {
	if end.Equal(start) {
		return !start.Before(i.Start) && start.Before(i.End)
	}
	return start.Before(i.End) && end.After(i.Start)
}

// In returns the interval with both ends expressed in loc.
func (i Interval) In(loc *time.Location) Interval {
	return Interval{Start: i.Start.In(loc), End: i.End.In(loc)}
}

// String renders the interval as "start/end" in Layout.
func (i Interval) String() string {
	return i.Start.Format(Layout) + "/" + i.End.Format(Layout)
}

// Midnight truncates t to 00:00 of the same calendar day in t's own zone.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Parse reads "instant/instant", "instant/period" or "period/instant".
// Instants without an explicit offset are read in loc (UTC when nil).
func Parse(raw string, loc *time.Location) (Interval, error) {
	if loc == nil {
		loc = time.UTC
	}
	left, right, ok := strings.Cut(strings.TrimSpace(raw), "/")
	if !ok || left == "" || right == "" {
		return Interval{}, fmt.Errorf("%w: %q is not of the form start/end", ErrMalformed, raw)
	}

	leftIsPeriod := isPeriod(left)
	rightIsPeriod := isPeriod(right)

	switch {
	case leftIsPeriod && rightIsPeriod:
		return Interval{}, fmt.Errorf("%w: %q has no anchoring instant", ErrMalformed, raw)
	case rightIsPeriod:
		start, err := parseInstant(left, loc)
		if err != nil {
			return Interval{}, err
		}
		p, err := parsePeriod(right)
		if err != nil {
			return Interval{}, err
		}
		return New(start, p.addTo(start))
	case leftIsPeriod:
		end, err := parseInstant(right, loc)
		if err != nil {
			return Interval{}, err
		}
		p, err := parsePeriod(left)
		if err != nil {
			return Interval{}, err
		}
		return New(p.subtractFrom(end), end)
	default:
		start, err := parseInstant(left, loc)
		if err != nil {
			return Interval{}, err
		}
		end, err := parseInstant(right, loc)
		if err != nil {
			return Interval{}, err
		}
		return New(start, end)
	}
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseInstant(raw string, loc *time.Location) (time.Time, error) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an ISO-8601 instant", ErrMalformed, raw)
}

func isPeriod(raw string) bool {
	return strings.HasPrefix(strings.ToUpper(raw), "P")
}

var periodPattern = regexp.MustCompile(`^P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

type period struct {
	years, months, days int
	clock               time.Duration
}

func parsePeriod(raw string) (period, error) {
	upper := strings.ToUpper(raw)
	m := periodPattern.FindStringSubmatch(upper)
	if m == nil || upper == "P" || strings.HasSuffix(upper, "T") {
		return period{}, fmt.Errorf("%w: %q is not an ISO-8601 period", ErrMalformed, raw)
	}

	var values [6]int
	for i, component := range m[1:7] {
		if component == "" {
			continue
		}
		n, err := strconv.Atoi(component)
		if err != nil || n > maxPeriodComponent {
			return period{}, fmt.Errorf("%w: %q has out of range component %q", ErrMalformed, raw, component)
		}
		values[i] = n
	}

	p := period{
		years:  values[0],
		months: values[1],
		days:   values[2]*7 + values[3],
	}
	p.clock = time.Duration(values[4])*time.Hour + time.Duration(values[5])*time.Minute
	if m[7] != "" {
		secs, err := strconv.ParseFloat(m[7], 64)
		if err != nil || secs > maxPeriodComponent {
			return period{}, fmt.Errorf("%w: %q has bad seconds", ErrMalformed, raw)
		}
		p.clock += time.Duration(secs * float64(time.Second))
	}
	return p, nil
}

func (p period) addTo(t time.Time) time.Time {
	return t.AddDate(p.years, p.months, p.days).Add(p.clock)
}

func (p period) subtractFrom(t time.Time) time.Time {
	return t.Add(-p.clock).AddDate(-p.years, -p.months, -p.days)
}
