package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-calendar-portlet/internal/models"
)

const (
	sessionFieldStartDate = "start_date"
	sessionFieldDays      = "days"
	sessionFieldTimezone  = "timezone"
	sessionFieldHidden    = "hidden_calendars"
)

// SessionRepository stores calendar session state as one Redis hash per session.
type SessionRepository struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(client *redis.Client, keyPrefix string, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionRepository{client: client, keyPrefix: keyPrefix, ttl: ttl}
}

func (r *SessionRepository) key(sessionID string) string {
	return r.keyPrefix + sessionID
}

// Load returns the stored state. Unknown sessions yield an empty state rather than an error.
func (r *SessionRepository) Load(ctx context.Context, sessionID string) (*models.SessionState, error) {
	fields, err := r.client.HGetAll(ctx, r.key(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall session %s: %w", sessionID, err)
	}

	state := &models.SessionState{HiddenCalendars: models.HiddenCalendars{}}
	if raw := fields[sessionFieldStartDate]; raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("decode session start date: %w", err)
		}
		state.StartDate = &start
	}
	if raw := fields[sessionFieldDays]; raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("decode session days: %w", err)
		}
		state.Days = &days
	}
	state.Timezone = fields[sessionFieldTimezone]
	if raw := fields[sessionFieldHidden]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &state.HiddenCalendars); err != nil {
			return nil, fmt.Errorf("decode hidden calendars: %w", err)
		}
	}
	return state, nil
}

// Save replaces the stored state and refreshes its expiry.
func (r *SessionRepository) Save(ctx context.Context, sessionID string, state *models.SessionState) error {
	if state == nil {
		return nil
	}
	hidden := state.HiddenCalendars
	if hidden == nil {
		hidden = models.HiddenCalendars{}
	}
	payload, err := json.Marshal(hidden)
	if err != nil {
		return fmt.Errorf("encode hidden calendars: %w", err)
	}

	values := map[string]interface{}{
		sessionFieldTimezone: state.Timezone,
		sessionFieldHidden:   string(payload),
	}
	var cleared []string
	if state.StartDate != nil {
		values[sessionFieldStartDate] = state.StartDate.Format(time.RFC3339)
	} else {
		cleared = append(cleared, sessionFieldStartDate)
	}
	if state.Days != nil {
		values[sessionFieldDays] = strconv.Itoa(*state.Days)
	} else {
		cleared = append(cleared, sessionFieldDays)
	}

	key := r.key(sessionID)
	pipe := r.client.TxPipeline()
	if len(cleared) > 0 {
		pipe.HDel(ctx, key, cleared...)
	}
	pipe.HSet(ctx, key, values)
	pipe.Expire(ctx, key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save session %s: %w", sessionID, err)
	}
	return nil
}
