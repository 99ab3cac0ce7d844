// Package adapter defines calendar source adapters and the registry that
// maps adapter names, as stored on calendar definitions, to implementations.
package adapter

import (
	"context"

	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
)

// LinkState classifies the outcome of a deep-link lookup.
type LinkState int

const (
	// LinkAvailable carries a URL.
	LinkAvailable LinkState = iota
	// LinkAbsent means the calendar has no link for this interval.
	LinkAbsent
	// LinkUnavailable means the adapter cannot produce links for this calendar.
	LinkUnavailable
)

func (s LinkState) String() string {
	switch s {
	case LinkAvailable:
		return "available"
	case LinkAbsent:
		return "absent"
	case LinkUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// LinkResult is the value returned by Adapter.Link. Only LinkAvailable carries a URL.
type LinkResult struct {
	State LinkState
	URL   string
}

// Available wraps url. An empty url is reported as absent.
func Available(url string) LinkResult {
	if url == "" {
		return Absent()
	}
	return LinkResult{State: LinkAvailable, URL: url}
}

// Absent reports that no link exists.
func Absent() LinkResult {
	return LinkResult{State: LinkAbsent}
}

// Unavailable reports that the adapter cannot link to the calendar.
func Unavailable() LinkResult {
	return LinkResult{State: LinkUnavailable}
}

// Adapter produces links and events for calendar configurations of one source type.
// Expected "no link" situations are returned as a LinkResult; errors are reserved
// for unexpected failures.
type Adapter interface {
	Link(ctx context.Context, cfg models.CalendarConfiguration, iv interval.Interval) (LinkResult, error)
	Events(ctx context.Context, cfg models.CalendarConfiguration, iv interval.Interval) ([]models.Occurrence, error)
}
