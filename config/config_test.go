package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adelgado/quantbt/config"
)

const sampleYAML = `
data:
  dir: testdata/market
  exchanges:
    nasdaq: [AAPL, MSFT]
    nyse: [all]
  start: "2010-01-01"
  end: "2021-01-01"
  sim_start: "2019-01-01"
  sim_end: "2020-01-01"
simulation:
  start_balance: 25000
  hold_for_days: 3
  prediction_interval: 2
  workers: 4
predictor:
  kind: remote
  base_url: http://localhost:8080
  rate_per_sec: 5
storage:
  dsn: runs.db
log:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "testdata/market", cfg.Data.Dir)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Data.Exchanges["nasdaq"])
	assert.Equal(t, []string{"all"}, cfg.Data.Exchanges["nyse"])
	assert.Equal(t, 25000.0, cfg.Simulation.StartBalance)
	assert.Equal(t, 3, cfg.Simulation.HoldForDays)
	assert.Equal(t, 2, cfg.Simulation.PredictionInterval)
	assert.Equal(t, "remote", cfg.Predictor.Kind)
	assert.Equal(t, "http://localhost:8080", cfg.Predictor.BaseURL)
	assert.Equal(t, "runs.db", cfg.Storage.DSN)
	assert.Equal(t, "debug", cfg.Log.Level)

	start, end, err := cfg.SimRange()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2019, time.January, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), end)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, `
data:
  start: "2010-01-01"
  end: "2021-01-01"
  sim_start: "2019-01-01"
  sim_end: "2020-01-01"
`))
	require.NoError(t, err)

	assert.Equal(t, "stock_market_data", cfg.Data.Dir)
	assert.Equal(t, 10000.0, cfg.Simulation.StartBalance)
	assert.Equal(t, 1, cfg.Simulation.HoldForDays)
	assert.Equal(t, 1, cfg.Simulation.PredictionInterval)
	assert.Equal(t, 0.9, cfg.Simulation.TrainSplit)
	assert.Equal(t, "momentum", cfg.Predictor.Kind)
	assert.Equal(t, "quantbt.db", cfg.Storage.DSN)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DATA_DIR", "/mnt/prices")
	t.Setenv("STORAGE_DSN", ":memory:")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := config.Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "/mnt/prices", cfg.Data.Dir)
	assert.Equal(t, ":memory:", cfg.Storage.DSN)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_InvalidRange(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
data:
  start: "2021-01-01"
  end: "2010-01-01"
  sim_start: "2019-01-01"
  sim_end: "2020-01-01"
`))
	assert.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
