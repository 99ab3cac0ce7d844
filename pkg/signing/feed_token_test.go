package signing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testInterval = "2024-01-01T00:00:00.000Z/2024-01-08T00:00:00.000Z"

func TestFeedSignerSignAndVerify(t *testing.T) {
	signer := NewFeedSigner("secret", time.Hour)
	token, expiresAt, err := signer.Sign(42, testInterval)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	parsed, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, int64(42), parsed.CalendarID)
	require.Equal(t, testInterval, parsed.Interval)
	require.WithinDuration(t, expiresAt, parsed.ExpiresAt, time.Second)
}

func TestFeedSignerExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	signer := NewFeedSigner("secret", time.Minute).WithClock(func() time.Time { return now })
	token, _, err := signer.Sign(1, testInterval)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = signer.Verify(token)
	require.Error(t, err)
}

func TestFeedSignerRejectsTampering(t *testing.T) {
	signer := NewFeedSigner("secret", time.Hour)
	token, _, err := signer.Sign(1, testInterval)
	require.NoError(t, err)

	other := NewFeedSigner("other-secret", time.Hour)
	_, err = other.Verify(token)
	require.Error(t, err)

	_, err = signer.Verify("no-dot-here")
	require.Error(t, err)

	_, _, err = NewFeedSigner("", time.Hour).Sign(1, testInterval)
	require.Error(t, err)
}
