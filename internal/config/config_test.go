package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/concrnt-loadtest/internal/metrics"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
target:
  host: api.example.com
  secure: true
  fqdn: example.com
  timelineID: tabc@example.com
load:
  maxActors: 20
  stages:
    - duration: 5s
      target: 20
    - duration: 1m
      target: 20
scenario:
  iterations: 5
  seed: 42
`)

	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.True(t, c.Target.Secure)
	assert.Equal(t, "api.example.com", c.Target.Host)
	assert.Equal(t, []string{"p(95)<300"}, c.Load.Thresholds)
	assert.Equal(t, "info", c.Server.LogLevel)

	profile, err := c.ProfileConfig()
	require.NoError(t, err)
	assert.Equal(t, 20, profile.MaxActors)
	require.Len(t, profile.Stages, 2)
	assert.Equal(t, time.Minute, profile.Stages[1].Duration)
	require.Len(t, profile.Thresholds, 1)
	assert.Equal(t, metrics.ComparatorLessThan, profile.Thresholds[0].Comparator)

	settings, err := c.ScenarioSettings()
	require.NoError(t, err)
	assert.Equal(t, 5, settings.Iterations)
	assert.Equal(t, int64(42), settings.Seed)
	assert.Equal(t, 3*time.Second, settings.PaceBase)
	assert.Equal(t, 10*time.Second, settings.PaceJitter)
	assert.Equal(t, "example.com", settings.Domain)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Default()
	valid.Target.TimelineID = "tabc@example.com"
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no host", func(c *Config) { c.Target.Host = "" }},
		{"no timeline", func(c *Config) { c.Target.TimelineID = "" }},
		{"no actors", func(c *Config) { c.Load.MaxActors = 0 }},
		{"no stages", func(c *Config) { c.Load.Stages = nil }},
		{"bad duration", func(c *Config) { c.Load.Stages[0].Duration = "soon" }},
		{"negative target", func(c *Config) { c.Load.Stages[0].Target = -1 }},
		{"bad threshold", func(c *Config) { c.Load.Thresholds = []string{"avg<300"} }},
		{"bad pace", func(c *Config) { c.Scenario.PaceBase = "3" }},
		{"bad timeout", func(c *Config) { c.Target.Timeout = "5" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Target.TimelineID = "tabc@example.com"
			c.Load.Stages = append([]Stage(nil), c.Load.Stages...)
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestDurations(t *testing.T) {
	c := Default()
	d, err := c.Timeout()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	c.Stub.Delay = "250ms"
	delay, err := c.Stub.DelayDuration()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, delay)

	c.Stub.Delay = "later"
	_, err = c.Stub.DelayDuration()
	assert.Error(t, err)
}
