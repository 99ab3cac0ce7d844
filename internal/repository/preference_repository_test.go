package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceRepositoryListByWindow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPreferenceRepository(db)
	rows := sqlmock.NewRows([]string{"window_id", "name", "value", "updated_at"}).
		AddRow("w-1", "days", "7", time.Now()).
		AddRow("w-1", "showDatePicker", "false", time.Now())
	mock.ExpectQuery("SELECT window_id, name, value").
		WithArgs("w-1").
		WillReturnRows(rows)

	prefs, err := repo.ListByWindow(context.Background(), "w-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"days": "7", "showDatePicker": "false"}, prefs)
}

func TestPreferenceRepositoryListByWindowError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPreferenceRepository(db)
	mock.ExpectQuery("SELECT window_id, name, value").
		WithArgs("w-1").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.ListByWindow(context.Background(), "w-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list portlet preferences")
}
