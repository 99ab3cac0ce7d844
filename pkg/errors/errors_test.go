package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCloneKeepsIdentity(t *testing.T) {
	cloned := Clone(ErrBadIntervalFormat, "interval \"x\" is malformed")
	assert.True(t, errors.Is(cloned, ErrBadIntervalFormat))
	assert.False(t, errors.Is(cloned, ErrInvalidCalendarID))
	assert.Equal(t, http.StatusBadRequest, cloned.Status)
	assert.Equal(t, "malformed interval", ErrBadIntervalFormat.Message)
}

func TestCloneWrapUnwraps(t *testing.T) {
	cause := fmt.Errorf("strconv: bad")
	err := CloneWrap(ErrInvalidCalendarID, cause, "")
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, fmt.Errorf("handler: %w", err), ErrInvalidCalendarID)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	appErr := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)

	typed := FromError(fmt.Errorf("wrapped: %w", ErrMissingSessionState))
	assert.Equal(t, ErrMissingSessionState.Code, typed.Code)
	assert.Nil(t, FromError(nil))
}
