package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-calendar-portlet/internal/models"
)

// CalendarEventRepository reads events maintained in the portal database.
type CalendarEventRepository struct {
	db *sqlx.DB
}

// NewCalendarEventRepository constructs a calendar event repository.
func NewCalendarEventRepository(db *sqlx.DB) *CalendarEventRepository {
	return &CalendarEventRepository{db: db}
}

// ListOverlapping returns events intersecting [filter.Start, filter.End).
// Zero-length events sitting exactly on the start boundary are included.
func (r *CalendarEventRepository) ListOverlapping(ctx context.Context, filter models.PortalEventFilter) ([]models.PortalEvent, error) {
	where := []string{"start_at < $2", "(end_at > $1 OR start_at = $1)"}
	args := []interface{}{filter.Start, filter.End}
	if len(filter.Audience) > 0 {
		audiences := make([]string, len(filter.Audience))
		for i, a := range filter.Audience {
			audiences[i] = string(a)
		}
		where = append(where, fmt.Sprintf("audience = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(audiences))
	}

	query := fmt.Sprintf(`SELECT id, title, description, event_type, start_at, end_at, all_day, audience, location, created_at, updated_at
FROM calendar_events WHERE %s ORDER BY start_at ASC, id ASC`, strings.Join(where, " AND "))
	var events []models.PortalEvent
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("list calendar events: %w", err)
	}
	return events, nil
}
