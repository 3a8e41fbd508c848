package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Config is the full backtester configuration.
type Config struct {
	Data       DataConfig       `yaml:"data"`
	Simulation SimulationConfig `yaml:"simulation"`
	Predictor  PredictorConfig  `yaml:"predictor"`
	Storage    StorageConfig    `yaml:"storage"`
	Log        LogConfig        `yaml:"log"`
}

// DataConfig selects the price history to load.
type DataConfig struct {
	// Dir is the root of the CSV dumps (<dir>/<exchange>/csv/<SYMBOL>.csv).
	Dir string `yaml:"dir"`
	// Exchanges maps an exchange directory to the symbols to load.
	// The symbol "all" expands to every file of the exchange.
	Exchanges map[string][]string `yaml:"exchanges"`
	// Start and End bound the loaded history (inclusive).
	Start string `yaml:"start"`
	End   string `yaml:"end"`
	// SimStart and SimEnd bound the simulated calendar. SimEnd is exclusive.
	SimStart string `yaml:"sim_start"`
	SimEnd   string `yaml:"sim_end"`
}

// SimulationConfig defines the capital and exit parameters.
type SimulationConfig struct {
	StartBalance       float64 `yaml:"start_balance"`
	HoldForDays        int     `yaml:"hold_for_days"`
	PredictionInterval int     `yaml:"prediction_interval"`
	TrainSplit         float64 `yaml:"train_split"`
	Workers            int     `yaml:"workers"`
}

// PredictorConfig selects and configures the predictor.
type PredictorConfig struct {
	// Kind is "momentum" (built-in) or "remote" (model server).
	Kind string `yaml:"kind"`
	// Lookback is the momentum predictor's trailing-step count.
	Lookback int `yaml:"lookback"`
	// BaseURL and RatePerSec configure the remote model server client.
	BaseURL    string  `yaml:"base_url"`
	RatePerSec float64 `yaml:"rate_per_sec"`
}

// StorageConfig controls run persistence.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite file path, or ":memory:"
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML config and the .env file if present, applies
// environment overrides, and fills defaults.
func Load(path string) (*Config, error) {
	// load .env if present (missing file is fine)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if _, _, err := cfg.DataRange(); err != nil {
		return nil, err
	}
	if _, _, err := cfg.SimRange(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DataRange returns the parsed history bounds.
func (c *Config) DataRange() (start, end time.Time, err error) {
	return parseRange("data.start/end", c.Data.Start, c.Data.End)
}

// SimRange returns the parsed simulation bounds. The end is exclusive.
func (c *Config) SimRange() (start, end time.Time, err error) {
	return parseRange("data.sim_start/sim_end", c.Data.SimStart, c.Data.SimEnd)
}

func parseRange(what, startStr, endStr string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: %s: parse %q: %w", what, startStr, err)
	}
	end, err := time.Parse(dateLayout, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("config: %s: parse %q: %w", what, endStr, err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("config: %s: end %s not after start %s", what, endStr, startStr)
	}
	return start, end, nil
}

// applyEnvOverrides overrides fields from well-known environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("STORAGE_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("MODEL_SERVER_URL"); v != "" {
		cfg.Predictor.BaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults fills required values with sensible defaults.
func setDefaults(cfg *Config) {
	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "stock_market_data"
	}
	if cfg.Simulation.StartBalance <= 0 {
		cfg.Simulation.StartBalance = 10000
	}
	if cfg.Simulation.HoldForDays <= 0 {
		cfg.Simulation.HoldForDays = 1
	}
	if cfg.Simulation.PredictionInterval <= 0 {
		cfg.Simulation.PredictionInterval = 1
	}
	if cfg.Simulation.TrainSplit <= 0 || cfg.Simulation.TrainSplit >= 1 {
		cfg.Simulation.TrainSplit = 0.9
	}
	if cfg.Predictor.Kind == "" {
		cfg.Predictor.Kind = "momentum"
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "quantbt.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
