package ical

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
)

func hourlyEvent(start time.Time) feedEvent {
	return feedEvent{
		UID:   "hourly-1",
		Start: start,
		End:   start.Add(30 * time.Minute),
		RRule: "FREQ=HOURLY",
	}
}

func TestExpandSkipsInstancesBeforeWindow(t *testing.T) {
	ev := hourlyEvent(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	iv := interval.FromDays(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1)

	out, err := expand(context.Background(), 7, []feedEvent{ev}, iv, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, out, 24)
	assert.True(t, out[0].Start.Equal(iv.Start))
	assert.Equal(t, int64(7), out[0].CalendarID)
}

func TestExpandCapsOpenEndedRecurrence(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	iv := interval.FromDays(start, interval.MaxDays)

	out, err := expand(context.Background(), 1, []feedEvent{hourlyEvent(start)}, iv, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, out, maxOccurrencesPerEvent)
	assert.True(t, out[len(out)-1].Start.Before(iv.End))
}

func TestExpandStopsWhenContextDone(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := expand(ctx, 1, []feedEvent{hourlyEvent(start)}, interval.FromDays(start, interval.MaxDays), zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
