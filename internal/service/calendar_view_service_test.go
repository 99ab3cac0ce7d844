package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-calendar-portlet/internal/adapter"
	"github.com/noah-isme/sma-calendar-portlet/internal/dto"
	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	appErrors "github.com/noah-isme/sma-calendar-portlet/pkg/errors"
	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
)

type calendarSetStub struct {
	set *models.CalendarSet
	err error
}

func (s *calendarSetStub) GetCalendarSet(context.Context, string) (*models.CalendarSet, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.set, nil
}

type sessionStoreStub struct {
	saved map[string]*models.SessionState
	err   error
}

func (s *sessionStoreStub) Load(_ context.Context, id string) (*models.SessionState, error) {
	if state, ok := s.saved[id]; ok {
		return state, nil
	}
	return &models.SessionState{HiddenCalendars: models.HiddenCalendars{}}, s.err
}

func (s *sessionStoreStub) Save(_ context.Context, id string, state *models.SessionState) error {
	if s.err != nil {
		return s.err
	}
	if s.saved == nil {
		s.saved = map[string]*models.SessionState{}
	}
	s.saved[id] = state
	return nil
}

type prefsStub struct {
	prefs models.PortletPreferences
}

func (p prefsStub) Get(context.Context, string) (models.PortletPreferences, error) {
	return p.prefs, nil
}

// fakeAdapter returns a fixed link result and counts calls.
type fakeAdapter struct {
	result adapter.LinkResult
	err    error
	block  bool
	events []models.Occurrence
	calls  int32
}

func (f *fakeAdapter) Link(ctx context.Context, _ models.CalendarConfiguration, _ interval.Interval) (adapter.LinkResult, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block {
		<-ctx.Done()
		return adapter.LinkResult{}, ctx.Err()
	}
	return f.result, f.err
}

func (f *fakeAdapter) Events(ctx context.Context, cfg models.CalendarConfiguration, _ interval.Interval) ([]models.Occurrence, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	out := make([]models.Occurrence, len(f.events))
	for i, ev := range f.events {
		ev.CalendarID = cfg.ID
		out[i] = ev
	}
	return out, f.err
}

func calendarConfig(id int64, name, adapterName string, displayed bool) models.CalendarConfiguration {
	return models.CalendarConfiguration{
		ID:         id,
		Name:       name,
		Displayed:  displayed,
		Definition: models.CalendarDefinition{ID: id * 10, ClassName: adapterName},
	}
}

func sessionFor(start time.Time, days int, tz string) *models.SessionState {
	return &models.SessionState{StartDate: &start, Days: &days, Timezone: tz, HiddenCalendars: models.HiddenCalendars{}}
}

var defaultPrefs = models.PortletPreferences{ShowDatePicker: "true", Days: 2, Timezone: "America/New_York"}

func fixedNow() time.Time {
	return time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
}

type viewFixture struct {
	svc      *CalendarViewService
	logs     *observer.ObservedLogs
	sessions *sessionStoreStub
	linked   *fakeAdapter
	noLink   *fakeAdapter
	absent   *fakeAdapter
	failing  *fakeAdapter
	slow     *fakeAdapter
}

func newViewFixture(t *testing.T, cfgs ...models.CalendarConfiguration) *viewFixture {
	t.Helper()
	f := &viewFixture{
		sessions: &sessionStoreStub{},
		linked:   &fakeAdapter{result: adapter.Available("https://calendar.example.com/week")},
		noLink:   &fakeAdapter{result: adapter.Unavailable()},
		absent:   &fakeAdapter{result: adapter.Absent()},
		failing:  &fakeAdapter{err: errors.New("feed exploded")},
		slow:     &fakeAdapter{block: true},
	}
	registry := adapter.NewRegistry()
	require.NoError(t, registry.Register("linked", adapter.TypeICal, f.linked))
	require.NoError(t, registry.Register("noLink", adapter.TypeICal, f.noLink))
	require.NoError(t, registry.Register("absent", adapter.TypePortal, f.absent))
	require.NoError(t, registry.Register("failing", adapter.TypeICal, f.failing))
	require.NoError(t, registry.Register("slow", adapter.TypeICal, f.slow))

	core, logs := observer.New(zap.InfoLevel)
	f.logs = logs
	f.svc = NewCalendarViewService(
		&calendarSetStub{set: &models.CalendarSet{WindowID: "w-1", Configurations: cfgs}},
		registry,
		f.sessions,
		prefsStub{prefs: defaultPrefs},
		CalendarViewOptions{AdapterTimeout: 50 * time.Millisecond, Metrics: NewMetricsService(), Now: fixedNow},
		zap.New(core),
	)
	return f
}

func TestResolveIntervalFromSerializedInterval(t *testing.T) {
	resolved, err := ResolveInterval("2024-01-01T00:00:00.000Z/2024-01-08T00:00:00.000Z", nil, time.UTC, fixedNow())
	require.NoError(t, err)
	assert.Equal(t, 7, resolved.Days)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), resolved.StartDate)
	assert.Equal(t, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), resolved.EndDate)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), resolved.Today)
	assert.Equal(t, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), resolved.Tomorrow)
}

func TestResolveIntervalTruncatesPartialDays(t *testing.T) {
	resolved, err := ResolveInterval("2024-01-01T06:00:00.000Z/2024-01-03T05:00:00.000Z", nil, time.UTC, fixedNow())
	require.NoError(t, err)
	assert.Equal(t, 1, resolved.Days)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), resolved.StartDate)
	assert.Equal(t, time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), resolved.EndDate)
	assert.Equal(t, 6, resolved.Interval.Start.Hour(), "adapters receive the untruncated interval")
}

func TestResolveIntervalFromSession(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	session := sessionFor(time.Date(2024, 1, 1, 0, 0, 0, 0, loc), 5, "America/New_York")

	resolved, err := ResolveInterval("", session, loc, fixedNow())
	require.NoError(t, err)
	assert.Equal(t, 5, resolved.Days)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, loc), resolved.StartDate)
	assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, loc), resolved.EndDate)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, loc), resolved.Today)
}

func TestResolveIntervalMissingSessionState(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	days := 3
	cases := map[string]*models.SessionState{
		"nil session":   nil,
		"no start date": {Days: &days},
		"no days":       {StartDate: &start},
	}
	for name, session := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ResolveInterval("", session, time.UTC, fixedNow())
			require.Error(t, err)
			assert.True(t, errors.Is(err, appErrors.ErrMissingSessionState))
		})
	}
}

func TestResolveIntervalMalformed(t *testing.T) {
	for _, raw := range []string{"garbage", "2024-01-08T00:00:00.000Z/2024-01-01T00:00:00.000Z", "P1D/P2D"} {
		_, err := ResolveInterval(raw, nil, time.UTC, fixedNow())
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, appErrors.ErrBadIntervalFormat), raw)
	}
}

func TestResolveIntervalRejectsOversizedRange(t *testing.T) {
	for _, raw := range []string{"2024-01-01T00:00:00Z/P20000Y", "2024-01-01T00:00:00Z/P368D", "2024-01-01/2026-01-01"} {
		_, err := ResolveInterval(raw, nil, time.UTC, fixedNow())
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, appErrors.ErrBadIntervalFormat), raw)
	}

	resolved, err := ResolveInterval("2024-01-01T00:00:00Z/P366D", nil, time.UTC, fixedNow())
	require.NoError(t, err)
	assert.Equal(t, interval.MaxDays, resolved.Days)

	session := sessionFor(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), interval.MaxDays+1, "UTC")
	_, err = ResolveInterval("", session, time.UTC, fixedNow())
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrBadIntervalFormat))
}

func TestUpdateHiddenCalendars(t *testing.T) {
	prior := models.HiddenCalendars{1: true}

	hidden, changed, err := UpdateHiddenCalendars(prior, "2", "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, hidden.Hidden(2))
	assert.False(t, prior.Hidden(2), "input is not mutated")

	restored, _, err := UpdateHiddenCalendars(hidden, "", "2")
	require.NoError(t, err)
	assert.Equal(t, prior, restored)

	restored, _, err = UpdateHiddenCalendars(prior, "1", "")
	require.NoError(t, err)
	assert.Equal(t, prior, restored)

	shown, _, err := UpdateHiddenCalendars(prior, "1", "1")
	require.NoError(t, err)
	assert.False(t, shown.Hidden(1), "show is applied after hide")

	_, _, err = UpdateHiddenCalendars(prior, "abc", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCalendarID))
	_, _, err = UpdateHiddenCalendars(prior, "", "1.5")
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCalendarID))
}

func TestSortCalendarsIsStableAndByteWise(t *testing.T) {
	cfgs := []models.CalendarConfiguration{
		calendarConfig(1, "beta", "linked", true),
		calendarConfig(2, "Alpha", "linked", true),
		calendarConfig(3, "beta", "linked", true),
		calendarConfig(4, "alpha", "linked", true),
	}
	sorted := SortCalendars(cfgs)
	ids := []int64{sorted[0].ID, sorted[1].ID, sorted[2].ID, sorted[3].ID}
	assert.Equal(t, []int64{2, 4, 1, 3}, ids)
	assert.Equal(t, int64(1), cfgs[0].ID, "input order untouched")

	assert.Equal(t, map[int64]int{2: 0, 4: 1, 1: 2, 3: 3}, ColorIndexes(sorted))
}

func TestSelectView(t *testing.T) {
	cases := map[string]string{
		"MAXIMIZED": dto.ViewWide,
		"maximized": dto.ViewWide,
		"Detached":  dto.ViewWide,
		"NORMAL":    dto.ViewNarrow,
		"minimized": dto.ViewNarrow,
		"":          dto.ViewNarrow,
	}
	for state, view := range cases {
		assert.Equal(t, view, SelectView(state), state)
	}
}

func TestRenderBuildsColorsAndLinks(t *testing.T) {
	f := newViewFixture(t,
		calendarConfig(1, "School", "linked", true),
		calendarConfig(2, "Holidays", "noLink", true),
		calendarConfig(3, "Exams", "linked", true),
		calendarConfig(4, "Sports", "absent", true),
	)
	session := sessionFor(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 5, "UTC")
	session.HiddenCalendars[3] = true

	resp, err := f.svc.Render(context.Background(), dto.CalendarViewRequest{WindowID: "w-1", SessionID: "s-1", Session: session, WindowState: "maximized"})
	require.NoError(t, err)

	assert.Equal(t, dto.ViewWide, resp.View)
	model := resp.Model
	assert.Equal(t, map[int64]int{3: 0, 2: 1, 1: 2, 4: 3}, model.Colors)
	assert.Equal(t, map[int64]string{1: "https://calendar.example.com/week"}, model.Links)
	assert.Len(t, model.Calendars, 4)
	assert.Equal(t, "Exams", model.Calendars[0].Name)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.linked.calls), "hidden calendar never reaches its adapter")
	assert.Equal(t, 0, f.logs.Len(), "unavailable and absent links are silent")

	assert.Equal(t, 5, model.Days)
	assert.Equal(t, time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), model.EndDate)
	assert.Equal(t, "UTC", model.Timezone)
	assert.Equal(t, "true", model.ShowDatePicker)
	assert.False(t, model.Guest)
	assert.False(t, model.DisablePreferences)
	assert.True(t, model.HiddenCalendars.Hidden(3))
}

func TestRenderLogsAdapterFailuresAndContinues(t *testing.T) {
	f := newViewFixture(t,
		calendarConfig(1, "A", "exchange", true),
		calendarConfig(2, "B", "failing", true),
		calendarConfig(3, "C", "slow", true),
		calendarConfig(4, "D", "linked", true),
	)
	session := sessionFor(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2, "UTC")

	resp, err := f.svc.Render(context.Background(), dto.CalendarViewRequest{WindowID: "w-1", Session: session, Guest: true})
	require.NoError(t, err)

	assert.Equal(t, dto.ViewNarrow, resp.View)
	assert.True(t, resp.Model.Guest)
	assert.Len(t, resp.Model.Colors, 4)
	assert.Equal(t, map[int64]string{4: "https://calendar.example.com/week"}, resp.Model.Links)

	notFound := f.logs.FilterMessage("calendar adapter not found").All()
	require.Len(t, notFound, 1)
	assert.Equal(t, "exchange", notFound[0].ContextMap()["adapter"])
	assert.Equal(t, 2, f.logs.FilterMessage("calendar link resolution failed").Len())
}

func TestRenderAppliesHideAndShowAndPersists(t *testing.T) {
	f := newViewFixture(t,
		calendarConfig(1, "School", "linked", true),
		calendarConfig(2, "Holidays", "linked", true),
	)
	session := sessionFor(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2, "UTC")

	resp, err := f.svc.Render(context.Background(), dto.CalendarViewRequest{WindowID: "w-1", SessionID: "s-1", Session: session, HideCalendar: "2"})
	require.NoError(t, err)
	assert.NotContains(t, resp.Model.Links, int64(2))
	assert.Contains(t, resp.Model.Colors, int64(2))
	require.Contains(t, f.sessions.saved, "s-1")
	assert.True(t, f.sessions.saved["s-1"].HiddenCalendars.Hidden(2))

	resp, err = f.svc.Render(context.Background(), dto.CalendarViewRequest{WindowID: "w-1", SessionID: "s-1", Session: session, ShowCalendar: "2"})
	require.NoError(t, err)
	assert.Contains(t, resp.Model.Links, int64(2))
	assert.False(t, f.sessions.saved["s-1"].HiddenCalendars.Hidden(2))
}

func TestRenderErrors(t *testing.T) {
	f := newViewFixture(t, calendarConfig(1, "School", "linked", true))
	ctx := context.Background()

	_, err := f.svc.Render(ctx, dto.CalendarViewRequest{WindowID: "w-1", Session: &models.SessionState{}})
	assert.True(t, errors.Is(err, appErrors.ErrMissingSessionState))

	_, err = f.svc.Render(ctx, dto.CalendarViewRequest{WindowID: "w-1", Session: &models.SessionState{}, Interval: "nonsense"})
	assert.True(t, errors.Is(err, appErrors.ErrBadIntervalFormat))

	session := sessionFor(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2, "Mars/Olympus")
	_, err = f.svc.Render(ctx, dto.CalendarViewRequest{WindowID: "w-1", Session: session})
	assert.True(t, errors.Is(err, appErrors.ErrBadTimezone))

	session = sessionFor(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2, "UTC")
	_, err = f.svc.Render(ctx, dto.CalendarViewRequest{WindowID: "w-1", Session: session, HideCalendar: "x"})
	assert.True(t, errors.Is(err, appErrors.ErrInvalidCalendarID))
}

func TestRenderExplicitIntervalWithoutSessionRange(t *testing.T) {
	f := newViewFixture(t, calendarConfig(1, "School", "linked", true))

	resp, err := f.svc.Render(context.Background(), dto.CalendarViewRequest{
		WindowID: "w-1",
		Session:  &models.SessionState{},
		Interval: "2024-01-01T00:00:00.000Z/2024-01-08T00:00:00.000Z",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Model.Days)
	assert.Equal(t, "America/New_York", resp.Model.Timezone)
}

func TestRenderLoaderFailure(t *testing.T) {
	svc := NewCalendarViewService(&calendarSetStub{err: errors.New("db down")}, adapter.NewRegistry(), nil, prefsStub{prefs: defaultPrefs}, CalendarViewOptions{Now: fixedNow}, nil)
	session := sessionFor(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2, "UTC")

	_, err := svc.Render(context.Background(), dto.CalendarViewRequest{WindowID: "w-1", Session: session})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestCallWithTimeout(t *testing.T) {
	v, err := callWithTimeout(context.Background(), time.Second, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = callWithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		time.Sleep(20 * time.Millisecond)
		return 1, nil
	})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
