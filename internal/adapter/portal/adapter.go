// Package portal serves calendars whose events live in the portal database.
package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/sma-calendar-portlet/internal/adapter"
	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
)

// SettingAudience restricts events to a comma separated audience list.
const SettingAudience = "audience"

// EventRepository reads portal events.
type EventRepository interface {
	ListOverlapping(ctx context.Context, filter models.PortalEventFilter) ([]models.PortalEvent, error)
}

// Signer issues feed tokens.
type Signer interface {
	Sign(calendarID int64, interval string) (string, time.Time, error)
}

// Options configures the adapter. FeedBaseURL is the absolute URL the feed
// routes are mounted under.
type Options struct {
	Events      EventRepository
	Signer      Signer
	FeedBaseURL string
}

// Adapter implements adapter.Adapter for portal events.
type Adapter struct {
	events      EventRepository
	signer      Signer
	feedBaseURL string
	audience    []models.EventAudience
}

// New builds an adapter. settings come from the adapter registration.
func New(opts Options, settings map[string]string) (*Adapter, error) {
	if opts.Events == nil {
		return nil, fmt.Errorf("portal adapter requires an event repository")
	}
	audience, err := parseAudience(settings[SettingAudience])
	if err != nil {
		return nil, err
	}
	return &Adapter{
		events:      opts.Events,
		signer:      opts.Signer,
		feedBaseURL: strings.TrimRight(opts.FeedBaseURL, "/"),
		audience:    audience,
	}, nil
}

func parseAudience(raw string) ([]models.EventAudience, error) {
	var out []models.EventAudience
	for _, part := range strings.Split(raw, ",") {
		value := models.EventAudience(strings.ToUpper(strings.TrimSpace(part)))
		switch value {
		case "":
			continue
		case models.EventAudienceAll, models.EventAudienceStaff, models.EventAudienceStudents:
			out = append(out, value)
		default:
			return nil, fmt.Errorf("unknown audience %q", part)
		}
	}
	return out, nil
}

func (a *Adapter) audienceFor(cfg models.CalendarConfiguration) ([]models.EventAudience, error) {
	if raw := cfg.Definition.Parameter(SettingAudience); raw != "" {
		return parseAudience(raw)
	}
	return a.audience, nil
}

// Link returns a signed link to the iCalendar export of cfg over iv.
func (a *Adapter) Link(_ context.Context, cfg models.CalendarConfiguration, iv interval.Interval) (adapter.LinkResult, error) {
	if a.signer == nil || a.feedBaseURL == "" {
		return adapter.Unavailable(), nil
	}
	token, _, err := a.signer.Sign(cfg.ID, iv.String())
	if err != nil {
		return adapter.LinkResult{}, fmt.Errorf("sign feed link for calendar %d: %w", cfg.ID, err)
	}
	return adapter.Available(a.feedBaseURL + "/feeds/" + token), nil
}

// Events returns portal events overlapping iv, in iv's zone.
func (a *Adapter) Events(ctx context.Context, cfg models.CalendarConfiguration, iv interval.Interval) ([]models.Occurrence, error) {
	audience, err := a.audienceFor(cfg)
	if err != nil {
		return nil, fmt.Errorf("calendar %d: %w", cfg.ID, err)
	}
	rows, err := a.events.ListOverlapping(ctx, models.PortalEventFilter{Start: iv.Start, End: iv.End, Audience: audience})
	if err != nil {
		return nil, err
	}

	loc := iv.Start.Location()
	out := make([]models.Occurrence, 0, len(rows))
	for _, row := range rows {
		occ := models.Occurrence{
			CalendarID:  cfg.ID,
			UID:         row.ID,
			Summary:     row.Title,
			Description: row.Description,
			Start:       row.StartAt.In(loc),
			End:         row.EndAt.In(loc),
			AllDay:      row.AllDay,
		}
		if row.Location != nil {
			occ.Location = *row.Location
		}
		out = append(out, occ)
	}
	return out, nil
}
