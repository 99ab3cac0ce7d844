package portal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-calendar-portlet/internal/adapter"
	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
	"github.com/noah-isme/sma-calendar-portlet/pkg/signing"
)

type eventRepoStub struct {
	filter models.PortalEventFilter
	rows   []models.PortalEvent
	err    error
}

func (s *eventRepoStub) ListOverlapping(_ context.Context, filter models.PortalEventFilter) ([]models.PortalEvent, error) {
	s.filter = filter
	return s.rows, s.err
}

func week() interval.Interval {
	return interval.FromDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 7)
}

func config(params map[string]string) models.CalendarConfiguration {
	return models.CalendarConfiguration{ID: 12, Name: "Exams", Displayed: true, Definition: models.CalendarDefinition{ClassName: adapter.TypePortal, Parameters: params}}
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{}, nil)
	require.Error(t, err)

	_, err = New(Options{Events: &eventRepoStub{}}, map[string]string{SettingAudience: "ALL,PARENTS"})
	require.Error(t, err)
}

func TestAdapterLinkSignsFeedURL(t *testing.T) {
	signer := signing.NewFeedSigner("secret", time.Hour)
	a, err := New(Options{Events: &eventRepoStub{}, Signer: signer, FeedBaseURL: "https://portal.example.com/api/v1/"}, nil)
	require.NoError(t, err)

	res, err := a.Link(context.Background(), config(nil), week())
	require.NoError(t, err)
	require.Equal(t, adapter.LinkAvailable, res.State)
	require.True(t, strings.HasPrefix(res.URL, "https://portal.example.com/api/v1/feeds/"))

	token := strings.TrimPrefix(res.URL, "https://portal.example.com/api/v1/feeds/")
	payload, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(12), payload.CalendarID)
	assert.Equal(t, week().String(), payload.Interval)
}

func TestAdapterLinkWithoutSigner(t *testing.T) {
	a, err := New(Options{Events: &eventRepoStub{}}, nil)
	require.NoError(t, err)

	res, err := a.Link(context.Background(), config(nil), week())
	require.NoError(t, err)
	assert.Equal(t, adapter.LinkUnavailable, res.State)
}

func TestAdapterEvents(t *testing.T) {
	room := "Hall"
	repo := &eventRepoStub{rows: []models.PortalEvent{{
		ID:       "e-1",
		Title:    "Final exams",
		StartAt:  time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC),
		EndAt:    time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
		Location: &room,
	}}}
	a, err := New(Options{Events: repo}, map[string]string{SettingAudience: "all, students"})
	require.NoError(t, err)

	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	iv := week().In(loc)

	events, err := a.Events(context.Background(), config(nil), iv)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(12), events[0].CalendarID)
	assert.Equal(t, "Hall", events[0].Location)
	assert.Equal(t, loc, events[0].Start.Location())
	assert.Equal(t, []models.EventAudience{models.EventAudienceAll, models.EventAudienceStudents}, repo.filter.Audience)

	_, err = a.Events(context.Background(), config(map[string]string{SettingAudience: "STAFF"}), iv)
	require.NoError(t, err)
	assert.Equal(t, []models.EventAudience{models.EventAudienceStaff}, repo.filter.Audience)

	repo.err = errors.New("db down")
	_, err = a.Events(context.Background(), config(nil), iv)
	require.Error(t, err)
}
