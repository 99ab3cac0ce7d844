package adapter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-calendar-portlet/internal/models"
	appErrors "github.com/noah-isme/sma-calendar-portlet/pkg/errors"
	"github.com/noah-isme/sma-calendar-portlet/pkg/interval"
)

type stubAdapter struct {
	settings map[string]string
}

func (s *stubAdapter) Link(context.Context, models.CalendarConfiguration, interval.Interval) (LinkResult, error) {
	return Available("https://example.com"), nil
}

func (s *stubAdapter) Events(context.Context, models.CalendarConfiguration, interval.Interval) ([]models.Occurrence, error) {
	return nil, nil
}

func TestLinkResultConstructors(t *testing.T) {
	assert.Equal(t, LinkAvailable, Available("https://x").State)
	assert.Equal(t, LinkAbsent, Available("").State)
	assert.Equal(t, LinkAbsent, Absent().State)
	assert.Equal(t, LinkUnavailable, Unavailable().State)
	assert.Equal(t, "unavailable", LinkUnavailable.String())
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("ical", TypeICal, &stubAdapter{}))

	a, err := registry.Resolve("ical")
	require.NoError(t, err)
	assert.NotNil(t, a)

	_, err = registry.Resolve("exchange")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrAdapterNotFound))
	assert.Contains(t, err.Error(), "exchange")
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register("ical", TypeICal, &stubAdapter{}))
	require.Error(t, registry.Register("ical", TypeICal, &stubAdapter{}))
	require.Error(t, registry.Register("", TypeICal, &stubAdapter{}))
	require.Error(t, registry.Register("none", TypeICal, nil))
	assert.Equal(t, []string{"ical"}, registry.Names())
}

func TestParseConfigDefaultsTypeToName(t *testing.T) {
	cfg, err := ParseConfig([]byte(`
adapters:
  - name: ical
  - name: schoolEvents
    type: portal
    settings:
      audience: ALL,STUDENTS
`))
	require.NoError(t, err)
	require.Len(t, cfg.Adapters, 2)
	assert.Equal(t, TypeICal, cfg.Adapters[0].Type)
	assert.Equal(t, "ALL,STUDENTS", cfg.Adapters[1].Settings["audience"])

	_, err = ParseConfig([]byte("adapters:\n  - type: ical\n"))
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adapters.yaml")
	require.NoError(t, os.WriteFile(path, []byte("adapters:\n  - name: feeds\n    type: ical\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, cfg.Adapters, 1)
	assert.Equal(t, "feeds", cfg.Adapters[0].Name)
}

func TestBuild(t *testing.T) {
	factories := map[string]Factory{
		TypeICal: func(settings map[string]string) (Adapter, error) {
			return &stubAdapter{settings: settings}, nil
		},
	}

	registry, err := Build(FileConfig{Adapters: []Registration{
		{Name: "ical", Type: TypeICal},
		{Name: "holidays", Type: TypeICal, Settings: map[string]string{"timeout": "2s"}},
	}}, factories)
	require.NoError(t, err)
	assert.Equal(t, []string{"holidays", "ical"}, registry.Names())

	entry, err := registry.Lookup("holidays")
	require.NoError(t, err)
	assert.Equal(t, TypeICal, entry.Type)
	assert.Equal(t, "2s", entry.Adapter.(*stubAdapter).settings["timeout"])

	_, err = Build(FileConfig{Adapters: []Registration{{Name: "x", Type: "exchange"}}}, factories)
	require.Error(t, err)

	failing := map[string]Factory{TypeICal: func(map[string]string) (Adapter, error) { return nil, errors.New("boom") }}
	_, err = Build(FileConfig{Adapters: []Registration{{Name: "ical", Type: TypeICal}}}, failing)
	require.Error(t, err)
}
