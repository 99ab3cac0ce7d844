package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-calendar-portlet/internal/dto"
	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	appErrors "github.com/noah-isme/sma-calendar-portlet/pkg/errors"
	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
)

// SessionService loads, bootstraps and updates calendar sessions.
type SessionService struct {
	store       SessionStore
	preferences preferenceReader
	validator   *validator.Validate
	bootstrap   bool
	now         func() time.Time
	logger      *zap.Logger
}

// NewSessionService constructs the service. With bootstrap disabled, fresh
// sessions stay empty until a range is set explicitly.
func NewSessionService(store SessionStore, preferences preferenceReader, validate *validator.Validate, bootstrap bool, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		store:       store,
		preferences: preferences,
		validator:   validate,
		bootstrap:   bootstrap,
		now:         time.Now,
		logger:      logger,
	}
}

// WithClock replaces the time source, for tests.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.now = now
	return s
}

// Load returns the session state of sessionID, filling a missing range and
// timezone from the window preferences when bootstrapping is enabled.
func (s *SessionService) Load(ctx context.Context, sessionID, windowID string) (*models.SessionState, error) {
	state, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load calendar session")
	}
	if state.HiddenCalendars == nil {
		state.HiddenCalendars = models.HiddenCalendars{}
	}
	if !s.bootstrap || state.Initialized() {
		return state, nil
	}

	prefs, err := s.preferences.Get(ctx, windowID)
	if err != nil {
		return nil, err
	}
	if state.Timezone == "" {
		state.Timezone = prefs.Timezone
	}
	loc, _, err := LoadLocation(state.Timezone, prefs.Timezone)
	if err != nil {
		return nil, err
	}
	if state.Days == nil {
		days := prefs.Days
		state.Days = &days
	}
	if state.StartDate == nil {
		today := interval.Midnight(s.now().In(loc))
		state.StartDate = &today
	}

	if err := s.store.Save(ctx, sessionID, state); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save calendar session")
	}
	s.logger.Debug("calendar session bootstrapped", zap.String("window_id", windowID), zap.String("timezone", state.Timezone), zap.Int("days", *state.Days))
	return state, nil
}

// UpdateRange stores a new start date, day count and optionally timezone.
func (s *SessionService) UpdateRange(ctx context.Context, sessionID string, state *models.SessionState, req dto.UpdateSessionRangeRequest) (*dto.SessionRangeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if state == nil {
		state = &models.SessionState{HiddenCalendars: models.HiddenCalendars{}}
	}
	if req.Timezone != "" {
		state.Timezone = req.Timezone
	}
	loc, tzName, err := LoadLocation(state.Timezone, "UTC")
	if err != nil {
		return nil, err
	}
	start, err := time.ParseInLocation("2006-01-02", req.StartDate, loc)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid startDate")
	}

	days := req.Days
	state.StartDate = &start
	state.Days = &days
	state.Timezone = tzName
	if err := s.store.Save(ctx, sessionID, state); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save calendar session")
	}
	return &dto.SessionRangeResponse{StartDate: start.Format("2006-01-02"), Days: days, Timezone: tzName}, nil
}
