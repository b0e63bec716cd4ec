package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.Nil(t, err)

	assert.Equal(t, "9447130", cfg.Tide.Station)
	assert.Equal(t, 30*time.Second, cfg.Tide.Timeout)
	assert.Equal(t, 3, cfg.Weather.Retries)
	assert.Equal(t, 0.2, cfg.Model.TestFraction)
	assert.Equal(t, 30, cfg.Model.ImportanceRepeats)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.Nil(t, cfg.Validate())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "liftcast.yaml")
	body := `
bridge:
  log_path: /var/log/bridge/lifts.csv
  latitude: 47.65
  longitude: -122.32
  start_date: "2024-05-01"
  end_date: "2024-05-31"
tide:
  station: "9414290"
model:
  test_fraction: 0.25
  split_seed: 7
`
	require.Nil(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.Nil(t, err)

	assert.Equal(t, "/var/log/bridge/lifts.csv", cfg.Bridge.LogPath)
	assert.Equal(t, "9414290", cfg.Tide.Station)
	assert.Equal(t, 0.25, cfg.Model.TestFraction)
	assert.Equal(t, uint64(7), cfg.Model.SplitSeed)

	// unset fields keep their defaults
	assert.Equal(t, 500, cfg.Model.MaxIter)

	require.Nil(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.NotNil(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load("")
		require.Nil(t, err)
		return cfg
	}

	testData := map[string]struct {
		mutate func(*Config)
	}{
		"missing log path":      {func(c *Config) { c.Bridge.LogPath = "" }},
		"latitude out of range": {func(c *Config) { c.Bridge.Latitude = 91.0 }},
		"bad start date":        {func(c *Config) { c.Bridge.StartDate = "05/01/2024" }},
		"missing station":       {func(c *Config) { c.Tide.Station = "" }},
		"negative retries":      {func(c *Config) { c.Weather.Retries = -1 }},
		"test fraction too big": {func(c *Config) { c.Model.TestFraction = 1.0 }},
		"no outputs":            {func(c *Config) { c.Output.HTMLPath = ""; c.Output.ListenAddr = "" }},
		"bad log level":         {func(c *Config) { c.Logging.Level = "verbose" }},
		"bad log format":        {func(c *Config) { c.Logging.Format = "xml" }},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			td.mutate(cfg)
			assert.NotNil(t, cfg.Validate())
		})
	}
}
