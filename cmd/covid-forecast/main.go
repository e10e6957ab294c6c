package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/mr1hm/go-covid-forecast/internal/config"
	"github.com/mr1hm/go-covid-forecast/internal/dataset"
	"github.com/mr1hm/go-covid-forecast/internal/forecast"
	"github.com/mr1hm/go-covid-forecast/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}

	country := flag.String("country", "", "country to forecast; all countries are summarized when empty")
	horizon := flag.Int("horizon", cfg.Forecast.Horizon, "days to forecast")
	dataDir := flag.String("data-dir", cfg.Data.Dir, "directory holding the indicator CSV files")
	flag.Parse()

	// stdout carries the forecast
	logging.SetupWriter(cfg.Logging.Level, os.Stderr)

	if *horizon < 1 || *horizon > config.MaxHorizon {
		logging.Fatalf("horizon must be between 1 and %d", config.MaxHorizon)
	}
	cfg.Data.Dir = *dataDir

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loader := dataset.NewLoader(dataset.NewProvider(cfg.Data), nil, nil, 0)
	ds, err := loader.Load(ctx)
	if err != nil {
		logging.Fatalf("Failed to load dataset: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *country == "" {
		summaries, err := forecast.Summarize(ctx, ds, *horizon, cfg.Forecast.Workers)
		if err != nil {
			logging.Fatalf("Failed to summarize forecasts: %v", err)
		}
		if err := enc.Encode(summaries); err != nil {
			logging.Fatalf("Failed to write output: %v", err)
		}
		return
	}

	if !ds.HasCountry(*country) {
		logging.Fatalf("unknown country: %s", *country)
	}

	res, err := forecast.ForecastDataset(ds, *country, *horizon)
	if err != nil {
		logging.Fatalf("Failed to forecast %s: %v", *country, err)
	}
	if res.InsufficientData {
		slog.Warn("not enough data for forecasting", "country", *country,
			"observations", res.Observations, "required", forecast.MinObservations)
	}
	if err := enc.Encode(res); err != nil {
		logging.Fatalf("Failed to write output: %v", err)
	}
	if res.InsufficientData {
		stop()
		os.Exit(2)
	}
}
