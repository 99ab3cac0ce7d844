package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FeedToken is the payload carried by a signed calendar feed link.
type FeedToken struct {
	CalendarID int64
	Interval   string
	ExpiresAt  time.Time
}

// FeedSigner creates and validates signed calendar feed tokens.
type FeedSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewFeedSigner constructs a signer with the provided secret and TTL.
func NewFeedSigner(secret string, ttl time.Duration) *FeedSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &FeedSigner{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (s *FeedSigner) WithClock(now func() time.Time) *FeedSigner {
	s.now = now
	return s
}

// Sign returns a URL-safe token granting read access to one calendar over one interval.
func (s *FeedSigner) Sign(calendarID int64, interval string) (string, time.Time, error) {
	if interval == "" {
		return "", time.Time{}, fmt.Errorf("interval required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).Truncate(time.Second)
	payload := strings.Join([]string{
		strconv.FormatInt(calendarID, 10),
		strconv.FormatInt(expiresAt.Unix(), 10),
		interval,
	}, "|")
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + s.mac(encoded), expiresAt, nil
}

// Verify checks the signature and expiry of a token and returns its payload.
func (s *FeedSigner) Verify(token string) (FeedToken, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return FeedToken{}, fmt.Errorf("invalid token format")
	}
	if !hmac.Equal([]byte(s.mac(encoded)), []byte(signature)) {
		return FeedToken{}, fmt.Errorf("invalid token signature")
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return FeedToken{}, fmt.Errorf("decode token: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 3)
	if len(parts) != 3 {
		return FeedToken{}, fmt.Errorf("invalid token payload")
	}
	calendarID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return FeedToken{}, fmt.Errorf("invalid calendar id")
	}
	expUnix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return FeedToken{}, fmt.Errorf("invalid timestamp")
	}

	tok := FeedToken{CalendarID: calendarID, ExpiresAt: time.Unix(expUnix, 0), Interval: parts[2]}
	if s.now().After(tok.ExpiresAt) {
		return FeedToken{}, fmt.Errorf("token expired")
	}
	return tok, nil
}

func (s *FeedSigner) mac(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
