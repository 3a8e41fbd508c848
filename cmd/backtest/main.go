package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/adelgado/quantbt/config"
	"github.com/adelgado/quantbt/internal/adapters/csvdata"
	"github.com/adelgado/quantbt/internal/adapters/modelserver"
	"github.com/adelgado/quantbt/internal/adapters/notify"
	"github.com/adelgado/quantbt/internal/adapters/storage"
	"github.com/adelgado/quantbt/internal/dataset"
	"github.com/adelgado/quantbt/internal/engine"
	"github.com/adelgado/quantbt/internal/ports"
	"github.com/adelgado/quantbt/internal/predictor"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	noStore := flag.Bool("no-store", false, "skip persisting the run to SQLite")
	datasetInfo := flag.Bool("dataset-info", false, "report training window counts before simulating")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	dataStart, dataEnd, _ := cfg.DataRange()
	simStart, simEnd, _ := cfg.SimRange()

	slog.Info("quantbt starting",
		"config", *configPath,
		"predictor", cfg.Predictor.Kind,
		"sim_start", simStart.Format("2006-01-02"),
		"sim_end", simEnd.Format("2006-01-02"),
		"start_balance", cfg.Simulation.StartBalance,
		"hold_for_days", cfg.Simulation.HoldForDays,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	loader := csvdata.NewLoader(cfg.Data.Dir, cfg.Data.Exchanges)
	universe, err := loader.LoadUniverse(ctx, dataStart, dataEnd)
	if err != nil {
		slog.Error("failed to load price history", "err", err)
		os.Exit(1)
	}
	slog.Info("universe loaded", "companies", universe.Len())

	if *datasetInfo {
		items := dataset.BuildTrainingWindows(universe, cfg.Simulation.PredictionInterval, cfg.Simulation.Workers)
		train, validation := dataset.Split(items, cfg.Simulation.TrainSplit)
		slog.Info("training windows",
			"total", len(items),
			"train", len(train),
			"validation", len(validation),
			"split", cfg.Simulation.TrainSplit,
		)
	}

	pred, err := buildPredictor(cfg)
	if err != nil {
		slog.Error("failed to build predictor", "err", err)
		os.Exit(1)
	}

	strategy := engine.Strategy{
		StartBalance: cfg.Simulation.StartBalance,
		HoldForDays:  cfg.Simulation.HoldForDays,
	}
	eng := engine.New(universe, pred, strategy, simStart, simEnd)

	run, err := eng.Run(ctx)
	if err != nil {
		slog.Error("simulation failed", "err", err)
		os.Exit(1)
	}
	slog.Info("simulation complete",
		"days", run.Days(),
		"transactions", len(run.History),
		"final_value", run.FinalValue,
	)

	console := notify.NewConsole()
	if err := console.Report(ctx, run); err != nil {
		slog.Warn("report failed", "err", err)
	}

	if !*noStore {
		store, err := storage.NewSQLiteStorage(cfg.Storage.DSN)
		if err != nil {
			slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
			os.Exit(1)
		}
		defer store.Close()

		if err := store.SaveRun(ctx, run); err != nil {
			slog.Error("failed to persist run", "err", err, "run", run.ID)
			os.Exit(1)
		}
		slog.Info("run persisted", "run", run.ID, "dsn", cfg.Storage.DSN)
	}
}

func buildPredictor(cfg *config.Config) (ports.Predictor, error) {
	switch cfg.Predictor.Kind {
	case "remote":
		return modelserver.NewClient(cfg.Predictor.BaseURL, cfg.Predictor.RatePerSec), nil
	default:
		return predictor.NewMomentum(cfg.Predictor.Lookback), nil
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
