package service

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	appErrors "github.com/noah-isme/sma-calendar-portlet/pkg/errors"
)

type preferenceRepository interface {
	ListByWindow(ctx context.Context, windowID string) (map[string]string, error)
}

// PreferenceDefaults are used when a window stores no value for a preference.
type PreferenceDefaults struct {
	Days     int
	Timezone string
}

// PreferenceService reads portlet preferences and applies defaults.
type PreferenceService struct {
	repo     preferenceRepository
	defaults PreferenceDefaults
	logger   *zap.Logger
}

// NewPreferenceService constructs the service.
func NewPreferenceService(repo preferenceRepository, defaults PreferenceDefaults, logger *zap.Logger) *PreferenceService {
	if defaults.Days <= 0 {
		defaults.Days = 2
	}
	if defaults.Timezone == "" {
		defaults.Timezone = "America/New_York"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{repo: repo, defaults: defaults, logger: logger}
}

// Get returns the preferences of a window. Unparsable stored values fall back
// to their defaults.
func (s *PreferenceService) Get(ctx context.Context, windowID string) (models.PortletPreferences, error) {
	stored, err := s.repo.ListByWindow(ctx, windowID)
	if err != nil {
		return models.PortletPreferences{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load portlet preferences")
	}

	prefs := models.PortletPreferences{
		DisablePreferences:    s.boolPref(windowID, stored, models.PreferenceDisablePreferences),
		DisableAdministration: s.boolPref(windowID, stored, models.PreferenceDisableAdministration),
		ShowDatePicker:        "true",
		Days:                  s.defaults.Days,
		Timezone:              s.defaults.Timezone,
	}
	if v, ok := stored[models.PreferenceShowDatePicker]; ok {
		prefs.ShowDatePicker = v
	}
	if raw := strings.TrimSpace(stored[models.PreferenceDays]); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil && days > 0 {
			prefs.Days = days
		} else {
			s.logger.Warn("ignoring invalid preference", zap.String("window_id", windowID), zap.String("name", models.PreferenceDays), zap.String("value", raw))
		}
	}
	if tz := strings.TrimSpace(stored[models.PreferenceTimezone]); tz != "" {
		prefs.Timezone = tz
	}
	return prefs, nil
}

func (s *PreferenceService) boolPref(windowID string, stored map[string]string, name string) bool {
	raw := strings.TrimSpace(stored[name])
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		s.logger.Warn("ignoring invalid preference", zap.String("window_id", windowID), zap.String("name", name), zap.String("value", raw))
		return false
	}
	return v
}
