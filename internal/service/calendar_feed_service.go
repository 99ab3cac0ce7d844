package service

import (
	"bytes"
	"context"
	"time"

	ics "github.com/emersion/go-ical"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-calendar-portlet/internal/adapter"
	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	appErrors "github.com/noah-isme/sma-calendar-portlet/pkg/errors"
	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
	"github.com/noah-isme/sma-calendar-portlet/pkg/signing"
)

const feedProductID = "-//sma-calendar-portlet//calendar feed//EN"

type configurationGetter interface {
	GetConfiguration(ctx context.Context, id int64) (*models.CalendarConfiguration, error)
}

type adapterLookup interface {
	Lookup(name string) (adapter.Entry, error)
}

type feedVerifier interface {
	Verify(token string) (signing.FeedToken, error)
}

// CalendarFeed is an encoded iCalendar document.
type CalendarFeed struct {
	Name string
	Body []byte
}

// CalendarFeedService exports portal calendars as iCalendar documents behind signed links.
type CalendarFeedService struct {
	calendars configurationGetter
	adapters  adapterLookup
	verifier  feedVerifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewCalendarFeedService constructs the service.
func NewCalendarFeedService(calendars configurationGetter, adapters adapterLookup, verifier feedVerifier, logger *zap.Logger) *CalendarFeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarFeedService{calendars: calendars, adapters: adapters, verifier: verifier, logger: logger, now: time.Now}
}

// Export validates token and encodes the events it grants access to.
func (s *CalendarFeedService) Export(ctx context.Context, token string) (*CalendarFeed, error) {
	payload, err := s.verifier.Verify(token)
	if err != nil {
		s.logger.Info("rejected feed token", zap.Error(err))
		return nil, appErrors.CloneWrap(appErrors.ErrInvalidFeedToken, err, "")
	}
	iv, err := interval.Parse(payload.Interval, time.UTC)
	if err != nil {
		return nil, appErrors.CloneWrap(appErrors.ErrInvalidFeedToken, err, "")
	}

	cfg, err := s.calendars.GetConfiguration(ctx, payload.CalendarID)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
			return nil, appErrors.CloneWrap(appErrors.ErrInvalidFeedToken, err, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar")
	}
	entry, err := s.adapters.Lookup(cfg.Definition.ClassName)
	if err != nil || entry.Type != adapter.TypePortal {
		return nil, appErrors.Clone(appErrors.ErrInvalidFeedToken, "")
	}

	occurrences, err := entry.Adapter.Events(ctx, *cfg, iv)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar events")
	}
	body, err := encodeFeed(cfg.Name, occurrences, s.now())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode calendar feed")
	}
	return &CalendarFeed{Name: cfg.Name, Body: body}, nil
}

func encodeFeed(name string, occurrences []models.Occurrence, stamp time.Time) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.Props.SetText(ics.PropVersion, "2.0")
	cal.Props.SetText(ics.PropProductID, feedProductID)
	cal.Props.SetText("X-WR-CALNAME", name)

	for _, occ := range occurrences {
		event := ics.NewEvent()
		event.Props.SetText(ics.PropUID, occ.UID)
		event.Props.SetDateTime(ics.PropDateTimeStamp, stamp.UTC())
		if occ.AllDay {
			event.Props.SetDate(ics.PropDateTimeStart, occ.Start)
			event.Props.SetDate(ics.PropDateTimeEnd, occ.End)
		} else {
			event.Props.SetDateTime(ics.PropDateTimeStart, occ.Start.UTC())
			event.Props.SetDateTime(ics.PropDateTimeEnd, occ.End.UTC())
		}
		event.Props.SetText(ics.PropSummary, occ.Summary)
		if occ.Description != "" {
			event.Props.SetText(ics.PropDescription, occ.Description)
		}
		if occ.Location != "" {
			event.Props.SetText(ics.PropLocation, occ.Location)
		}
		cal.Children = append(cal.Children, event.Component)
	}

	var buf bytes.Buffer
	if err := ics.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
