package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-calendar-portlet/internal/models"
)

// PreferenceRepository reads portlet preferences stored per window.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository constructs the repository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

// ListByWindow returns all preferences of a window keyed by name.
func (r *PreferenceRepository) ListByWindow(ctx context.Context, windowID string) (map[string]string, error) {
	const query = `SELECT window_id, name, value, updated_at FROM portlet_preferences WHERE window_id = $1 ORDER BY name ASC`
	var prefs []models.Preference
	if err := r.db.SelectContext(ctx, &prefs, query, windowID); err != nil {
		return nil, fmt.Errorf("list portlet preferences: %w", err)
	}
	result := make(map[string]string, len(prefs))
	for _, pref := range prefs {
		result[pref.Name] = pref.Value
	}
	return result, nil
}
