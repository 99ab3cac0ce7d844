package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-calendar-portlet/internal/dto"
	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	appErrors "github.com/noah-isme/sma-calendar-portlet/pkg/errors"
)

// CalendarEventService aggregates the occurrences of every visible calendar of a window.
type CalendarEventService struct {
	calendars   CalendarSetLoader
	preferences preferenceReader
	invoker     *adapterInvoker
	now         func() time.Time
}

// NewCalendarEventService constructs the service.
func NewCalendarEventService(calendars CalendarSetLoader, adapters AdapterResolver, preferences preferenceReader, opts CalendarViewOptions, logger *zap.Logger) *CalendarEventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.AdapterTimeout <= 0 {
		opts.AdapterTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &CalendarEventService{
		calendars:   calendars,
		preferences: preferences,
		invoker:     &adapterInvoker{adapters: adapters, timeout: opts.AdapterTimeout, metrics: opts.Metrics, logger: logger},
		now:         opts.Now,
	}
}

// ListEvents returns occurrences sorted by start, then calendar color index.
// Calendars whose adapter fails are listed in Errors instead of failing the request.
func (s *CalendarEventService) ListEvents(ctx context.Context, req dto.CalendarEventsRequest) (*dto.CalendarEventsResponse, error) {
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

	set, err := s.calendars.GetCalendarSet(ctx, req.WindowID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendars")
	}
	sorted := SortCalendars(set.Configurations)
	colors := ColorIndexes(sorted)

	resp := &dto.CalendarEventsResponse{
		StartDate: resolved.StartDate,
		EndDate:   resolved.EndDate,
		Timezone:  tzName,
		Colors:    colors,
		Events:    []models.Occurrence{},
		Errors:    []dto.CalendarError{},
	}
	for _, cfg := range sorted {
		if session.HiddenCalendars.Hidden(cfg.ID) {
			continue
		}
		occurrences, err := s.invoker.events(ctx, cfg, resolved.Interval.In(loc))
		if err != nil {
			appErr := appErrors.FromError(err)
			resp.Errors = append(resp.Errors, dto.CalendarError{CalendarID: cfg.ID, Code: appErr.Code, Message: appErr.Message})
			continue
		}
		resp.Events = append(resp.Events, occurrences...)
	}

	sort.SliceStable(resp.Events, func(i, j int) bool {
		a, b := resp.Events[i], resp.Events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return colors[a.CalendarID] < colors[b.CalendarID]
	})
	return resp, nil
}
