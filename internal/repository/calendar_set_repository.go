package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	appErrors "github.com/noah-isme/sma-calendar-portlet/pkg/errors"
)

const calendarConfigurationColumns = `c.id, c.window_id, c.display_name, c.displayed, c.position,
d.id AS definition_id, d.class_name, d.name AS definition_name, d.parameters`

// calendarConfigurationRow is the flattened join of a configuration and its definition.
type calendarConfigurationRow struct {
	ID             int64  `db:"id"`
	WindowID       string `db:"window_id"`
	DisplayName    string `db:"display_name"`
	Displayed      bool   `db:"displayed"`
	Position       int    `db:"position"`
	DefinitionID   int64  `db:"definition_id"`
	ClassName      string `db:"class_name"`
	DefinitionName string `db:"definition_name"`
	Parameters     []byte `db:"parameters"`
}

func (r calendarConfigurationRow) toModel() (models.CalendarConfiguration, error) {
	params := map[string]string{}
	if len(r.Parameters) > 0 {
		if err := json.Unmarshal(r.Parameters, &params); err != nil {
			return models.CalendarConfiguration{}, fmt.Errorf("decode parameters of calendar definition %d: %w", r.DefinitionID, err)
		}
	}
	return models.CalendarConfiguration{
		ID:        r.ID,
		WindowID:  r.WindowID,
		Name:      r.DisplayName,
		Displayed: r.Displayed,
		Position:  r.Position,
		Definition: models.CalendarDefinition{
			ID:         r.DefinitionID,
			ClassName:  r.ClassName,
			Name:       r.DefinitionName,
			Parameters: params,
		},
	}, nil
}

// CalendarSetRepository loads the calendar configurations bound to portal windows.
type CalendarSetRepository struct {
	db *sqlx.DB
}

// NewCalendarSetRepository constructs the repository.
func NewCalendarSetRepository(db *sqlx.DB) *CalendarSetRepository {
	return &CalendarSetRepository{db: db}
}

// GetCalendarSet returns the configurations of a window in loader order
// (position, then id). A window without configurations yields an empty set.
func (r *CalendarSetRepository) GetCalendarSet(ctx context.Context, windowID string) (*models.CalendarSet, error) {
	query := fmt.Sprintf(`SELECT %s
FROM calendar_configurations c
JOIN calendar_definitions d ON d.id = c.definition_id
WHERE c.window_id = $1
ORDER BY c.position ASC, c.id ASC`, calendarConfigurationColumns)
	var rows []calendarConfigurationRow
	if err := r.db.SelectContext(ctx, &rows, query, windowID); err != nil {
		return nil, fmt.Errorf("list calendar configurations: %w", err)
	}
	set := &models.CalendarSet{WindowID: windowID, Configurations: make([]models.CalendarConfiguration, 0, len(rows))}
	for _, row := range rows {
		cfg, err := row.toModel()
		if err != nil {
			return nil, err
		}
		set.Configurations = append(set.Configurations, cfg)
	}
	return set, nil
}

// GetConfiguration fetches a single configuration by id.
func (r *CalendarSetRepository) GetConfiguration(ctx context.Context, id int64) (*models.CalendarConfiguration, error) {
	query := fmt.Sprintf(`SELECT %s
FROM calendar_configurations c
JOIN calendar_definitions d ON d.id = c.definition_id
WHERE c.id = $1`, calendarConfigurationColumns)
	var row calendarConfigurationRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar configuration not found")
		}
		return nil, fmt.Errorf("get calendar configuration: %w", err)
	}
	cfg, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
