// Package ical serves calendars published as remote iCalendar feeds.
package ical

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-calendar-portlet/internal/adapter"
	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
)

// Settings understood on registrations and calendar definitions. Definition
// parameters win over registration settings.
const (
	SettingURL     = "url"
	SettingLink    = "link"
	SettingTimeout = "timeout"
)

const (
	cacheKeyPrefix = "ical:feed:"
	maxFeedBytes   = 10 << 20
	linkDateLayout = "20060102"

	defaultFetchTimeout = 4 * time.Second
)

// Cache stores fetched feed bodies.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Options configures the adapter. Timeout is the default feed fetch timeout
// and also its ceiling: a registration timeout setting may only shorten it.
type Options struct {
	Client   *http.Client
	Cache    Cache
	CacheTTL time.Duration
	Timeout  time.Duration
	Logger   *zap.Logger
}

// Adapter implements adapter.Adapter for iCalendar feeds.
type Adapter struct {
	client   *http.Client
	cache    Cache
	cacheTTL time.Duration
	timeout  time.Duration
	settings map[string]string
	logger   *zap.Logger
}

type cachedFeed struct {
	Body string `json:"body"`
}

// New builds an adapter. settings come from the adapter registration.
func New(opts Options, settings map[string]string) (*Adapter, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := opts.Timeout
	if raw := settings[SettingTimeout]; raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s setting %q", SettingTimeout, raw)
		}
		if opts.Timeout <= 0 || d < opts.Timeout {
			timeout = d
		}
	}
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Adapter{
		client:   client,
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		timeout:  timeout,
		settings: settings,
		logger:   logger,
	}, nil
}

func (a *Adapter) setting(cfg models.CalendarConfiguration, key string) string {
	if v := cfg.Definition.Parameter(key); v != "" {
		return v
	}
	return a.settings[key]
}

// Link expands the configured link template. {start} and {end} become
// yyyyMMdd dates in the interval's zone. Without a template no link can be built.
func (a *Adapter) Link(_ context.Context, cfg models.CalendarConfiguration, iv interval.Interval) (adapter.LinkResult, error) {
	template := a.setting(cfg, SettingLink)
	if template == "" {
		return adapter.Unavailable(), nil
	}
	link := strings.NewReplacer(
		"{start}", iv.Start.Format(linkDateLayout),
		"{end}", iv.End.Format(linkDateLayout),
	).Replace(template)
	if _, err := url.ParseRequestURI(link); err != nil {
		return adapter.LinkResult{}, fmt.Errorf("calendar %d: invalid link template: %w", cfg.ID, err)
	}
	return adapter.Available(link), nil
}

// Events fetches the feed and returns occurrences overlapping iv.
func (a *Adapter) Events(ctx context.Context, cfg models.CalendarConfiguration, iv interval.Interval) ([]models.Occurrence, error) {
	feedURL := a.setting(cfg, SettingURL)
	if feedURL == "" {
		return nil, fmt.Errorf("calendar %d: %s setting required", cfg.ID, SettingURL)
	}
	body, err := a.fetch(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("calendar %d: %w", cfg.ID, err)
	}
	events, err := parseFeed(body, a.logger)
	if err != nil {
		return nil, fmt.Errorf("calendar %d: %w", cfg.ID, err)
	}
	occurrences, err := expand(ctx, cfg.ID, events, iv, a.logger)
	if err != nil {
		return nil, fmt.Errorf("calendar %d: expand feed: %w", cfg.ID, err)
	}
	return occurrences, nil
}

func (a *Adapter) fetch(ctx context.Context, feedURL string) (string, error) {
	key := cacheKeyPrefix + feedURL
	if a.cache != nil {
		var cached cachedFeed
		if hit, err := a.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached.Body, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return "", fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("Accept", "text/calendar")
	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch feed: unexpected status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes+1))
	if err != nil {
		return "", fmt.Errorf("read feed: %w", err)
	}
	if len(raw) > maxFeedBytes {
		return "", fmt.Errorf("read feed: body exceeds %d bytes", maxFeedBytes)
	}

	body := string(raw)
	if a.cache != nil {
		_ = a.cache.Set(ctx, key, cachedFeed{Body: body}, a.cacheTTL)
	}
	return body, nil
}
