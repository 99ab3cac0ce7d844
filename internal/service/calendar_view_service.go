package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-calendar-portlet/internal/dto"
	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	appErrors "github.com/noah-isme/sma-calendar-portlet/pkg/errors"
	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
)

// CalendarSetLoader returns the calendar configurations of a window.
type CalendarSetLoader interface {
	GetCalendarSet(ctx context.Context, windowID string) (*models.CalendarSet, error)
}

// SessionStore persists calendar session state.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*models.SessionState, error)
	Save(ctx context.Context, sessionID string, state *models.SessionState) error
}

type preferenceReader interface {
	Get(ctx context.Context, windowID string) (models.PortletPreferences, error)
}

// ResolvedInterval is the outcome of interval resolution. Interval is what
// adapters receive; StartDate and EndDate are its day-aligned bounds.
type ResolvedInterval struct {
	StartDate time.Time
	EndDate   time.Time
	Days      int
	Today     time.Time
	Tomorrow  time.Time
	Interval  interval.Interval
}

// ResolveInterval computes the display range. A non-empty raw interval wins;
// otherwise the session start date and day count are used.
func ResolveInterval(raw string, session *models.SessionState, loc *time.Location, now time.Time) (ResolvedInterval, error) {
	var out ResolvedInterval
	if strings.TrimSpace(raw) != "" {
		iv, err := interval.Parse(raw, loc)
		if err != nil {
			return out, appErrors.CloneWrap(appErrors.ErrBadIntervalFormat, err, fmt.Sprintf("malformed interval %q", raw))
		}
		if iv.Duration() > time.Duration(interval.MaxDays+1)*24*time.Hour {
			return out, appErrors.Clone(appErrors.ErrBadIntervalFormat, fmt.Sprintf("interval %q exceeds %d days", raw, interval.MaxDays))
		}
		out.Interval = iv
		out.Days = iv.Days()
		out.StartDate = interval.Midnight(iv.Start)
		out.EndDate = interval.Midnight(iv.End)
	} else {
		if session == nil || session.StartDate == nil || session.Days == nil {
			return out, appErrors.ErrMissingSessionState
		}
		y, m, d := session.StartDate.Date()
		out.StartDate = time.Date(y, m, d, 0, 0, 0, 0, loc)
		out.Days = *session.Days
		if out.Days > interval.MaxDays {
			return out, appErrors.Clone(appErrors.ErrBadIntervalFormat, fmt.Sprintf("session range exceeds %d days", interval.MaxDays))
		}
		out.Interval = interval.FromDays(out.StartDate, out.Days)
		out.EndDate = out.Interval.End
	}
	out.Today = interval.Midnight(now.In(loc))
	out.Tomorrow = out.Today.AddDate(0, 0, 1)
	return out, nil
}

// UpdateHiddenCalendars applies hide then show to a copy of hidden. The
// boolean reports whether the set changed.
func UpdateHiddenCalendars(hidden models.HiddenCalendars, hide, show string) (models.HiddenCalendars, bool, error) {
	hideID, err := parseCalendarID(hide)
	if err != nil {
		return hidden, false, err
	}
	showID, err := parseCalendarID(show)
	if err != nil {
		return hidden, false, err
	}

	out := hidden.Clone()
	changed := false
	if hideID != nil && !out[*hideID] {
		out[*hideID] = true
		changed = true
	}
	if showID != nil {
		if _, present := out[*showID]; present {
			delete(out, *showID)
			changed = true
		}
	}
	return out, changed, nil
}

func parseCalendarID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrInvalidCalendarID, err, fmt.Sprintf("invalid calendar id %q", raw))
	}
	return &id, nil
}

// SortCalendars orders configurations by display name, byte-wise. Equal names
// keep their loader order.
func SortCalendars(cfgs []models.CalendarConfiguration) []models.CalendarConfiguration {
	sorted := make([]models.CalendarConfiguration, len(cfgs))
	copy(sorted, cfgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// ColorIndexes maps every configuration id to its position in sorted.
func ColorIndexes(sorted []models.CalendarConfiguration) map[int64]int {
	colors := make(map[int64]int, len(sorted))
	for i, cfg := range sorted {
		colors[cfg.ID] = i
	}
	return colors
}

// SelectView picks the wide view for maximized or detached windows.
func SelectView(windowState string) string {
	if strings.EqualFold(windowState, "MAXIMIZED") || strings.EqualFold(windowState, "DETACHED") {
		return dto.ViewWide
	}
	return dto.ViewNarrow
}

// LoadLocation resolves a session timezone, falling back when it is empty.
func LoadLocation(name, fallback string) (*time.Location, string, error) {
	if name == "" {
		name = fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, "", appErrors.CloneWrap(appErrors.ErrBadTimezone, err, fmt.Sprintf("unknown timezone %q", name))
	}
	return loc, name, nil
}

// CalendarViewService renders the aggregated calendar view of a window.
type CalendarViewService struct {
	calendars   CalendarSetLoader
	sessions    SessionStore
	preferences preferenceReader
	invoker     *adapterInvoker
	logger      *zap.Logger
	now         func() time.Time
}

// CalendarViewOptions tunes adapter calls.
type CalendarViewOptions struct {
	AdapterTimeout time.Duration
	Metrics        *MetricsService
	Now            func() time.Time
}

// NewCalendarViewService constructs the service.
func NewCalendarViewService(calendars CalendarSetLoader, adapters AdapterResolver, sessions SessionStore, preferences preferenceReader, opts CalendarViewOptions, logger *zap.Logger) *CalendarViewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.AdapterTimeout <= 0 {
		opts.AdapterTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CalendarViewService{
		calendars:   calendars,
		sessions:    sessions,
		preferences: preferences,
		invoker:     &adapterInvoker{adapters: adapters, timeout: opts.AdapterTimeout, metrics: opts.Metrics, logger: logger},
		logger:      logger,
		now:         opts.Now,
	}
}

// Render resolves the interval, applies hide/show requests, resolves links and
// returns the selected view with its model.
func (s *CalendarViewService) Render(ctx context.Context, req dto.CalendarViewRequest) (*dto.CalendarViewResponse, error) {
	session := req.Session
	if session == nil {
		session = &models.SessionState{}
	}

	prefs, err := s.preferences.Get(ctx, req.WindowID)
	if err != nil {
		return nil, err
	}
	loc, tzName, err := LoadLocation(session.Timezone, prefs.Timezone)
	if err != nil {
		return nil, err
	}

	resolved, err := ResolveInterval(req.Interval, session, loc, s.now())
	if err != nil {
		return nil, err
	}

	hidden, changed, err := UpdateHiddenCalendars(session.HiddenCalendars, req.HideCalendar, req.ShowCalendar)
	if err != nil {
		return nil, err
	}
	session.HiddenCalendars = hidden
	if changed && s.sessions != nil && req.SessionID != "" {
		if err := s.sessions.Save(ctx, req.SessionID, session); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save calendar session")
		}
	}

	set, err := s.calendars.GetCalendarSet(ctx, req.WindowID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendars")
	}

	sorted := SortCalendars(set.Configurations)
	colors := ColorIndexes(sorted)
	links := make(map[int64]string)
	for _, cfg := range sorted {
		if hidden.Hidden(cfg.ID) {
			continue
		}
		if link, ok := s.invoker.link(ctx, cfg, resolved.Interval); ok {
			links[cfg.ID] = link
		}
	}

	return &dto.CalendarViewResponse{
		View: SelectView(req.WindowState),
		Model: dto.CalendarViewModel{
			Guest:                 req.Guest,
			ShowDatePicker:        prefs.ShowDatePicker,
			StartDate:             resolved.StartDate,
			EndDate:               resolved.EndDate,
			Days:                  resolved.Days,
			Today:                 resolved.Today,
			Tomorrow:              resolved.Tomorrow,
			Calendars:             sorted,
			Colors:                colors,
			Links:                 links,
			HiddenCalendars:       hidden,
			Timezone:              tzName,
			DisablePreferences:    prefs.DisablePreferences,
			DisableAdministration: prefs.DisableAdministration,
		},
	}, nil
}
