package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/api"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/domain"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/forecast"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/jobs"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/repository/postgres"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/seed"
	"github.com/andresuchdata/autopo-py/forecast-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
)

func runServe(c *cli.Context) error {
	a := fromContext(c)
	cfg := a.cfg

	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := api.NewRouter(&api.Services{
		ForecastService: a.forecasts,
		AggregationJob:  a.aggregation,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var scheduler *jobs.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = jobs.NewScheduler(logger.Log, a.aggregation, cfg.Scheduler.RunHour)
		scheduler.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}
	logger.Log.Info().Msg("Shutting down server...")

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Log.Info().Msg("Server exiting")
	return nil
}

func runMigrate(c *cli.Context) error {
	applied, err := postgres.Migrate(c.Context, fromContext(c).db)
	if err != nil {
		return err
	}
	logger.Log.Info().Strs("applied", applied).Msg("migrations complete")
	return nil
}

func runAggregate(c *cli.Context) error {
	day, err := parseDay(c.String("date"))
	if err != nil {
		return err
	}

	result, err := fromContext(c).aggregation.AggregateDailySales(c.Context, day)
	if result != nil {
		if perr := printJSON(result); perr != nil {
			return perr
		}
	}
	return err
}

func runBackfill(c *cli.Context) error {
	a := fromContext(c)

	from, err := parseDay(c.String("from"))
	if err != nil {
		return err
	}
	to, err := parseDay(c.String("to"))
	if err != nil {
		return err
	}
	if to.IsZero() {
		to = a.aggregation.Yesterday()
	}

	results, err := a.aggregation.Backfill(c.Context, from, to)
	if perr := printJSON(results); perr != nil {
		return perr
	}
	return err
}

func runForecast(c *cli.Context) error {
	a := fromContext(c)

	opts, err := batchOptions(c)
	if err != nil {
		return err
	}

	if id := c.Int64("product"); id > 0 {
		result, err := a.forecasts.GetForecast(c.Context, id, opts.ForecastOptions)
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	results, err := a.forecasts.GetAllProductForecasts(c.Context, opts)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runAlerts(c *cli.Context) error {
	a := fromContext(c)

	opts, err := batchOptions(c)
	if err != nil {
		return err
	}

	if c.Bool("list-exports") {
		if a.exporter == nil {
			return fmt.Errorf("--list-exports needs STORAGE_ENABLED=true")
		}
		exports, err := a.exporter.ListExports(c.Context, opts.ForecastDate)
		if err != nil {
			return err
		}
		return printJSON(exports)
	}

	alerts, err := a.forecasts.GetReorderAlerts(c.Context, opts)
	if err != nil {
		return err
	}

	if c.Bool("export") {
		if a.exporter == nil {
			return fmt.Errorf("--export needs STORAGE_ENABLED=true")
		}
		forecastDate := opts.ForecastDate
		if forecastDate.IsZero() {
			forecastDate = a.forecasts.Today()
		}
		key, err := a.exporter.Export(c.Context, forecastDate, alerts)
		if err != nil {
			return err
		}
		logger.Log.Info().Str("key", key).Msg("alerts uploaded")
	}

	return printJSON(alerts)
}

func runReorderPoints(c *cli.Context) error {
	a := fromContext(c)

	if id := c.Int64("product"); id > 0 {
		result, err := a.forecasts.GetDynamicReorderPoint(c.Context, id)
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	results, err := a.forecasts.GetAllDynamicReorderPoints(c.Context)
	if err != nil {
		return err
	}
	return printJSON(results)
}

func runSeedAll(c *cli.Context) error {
	a := fromContext(c)
	loader := a.loader()
	dir := c.String("data-dir")

	if prefix := c.String("bucket-prefix"); prefix != "" {
		if a.objects == nil {
			return fmt.Errorf("--bucket-prefix needs STORAGE_ENABLED=true")
		}
		tmp, err := os.MkdirTemp("", "forecast-seed-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(tmp)

		if _, err := seed.FetchFiles(c.Context, a.objects, prefix, tmp); err != nil {
			return err
		}
		dir = tmp
	}

	for _, kind := range seed.Kinds {
		path := filepath.Join(dir, string(kind)+".csv")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			logger.Log.Warn().Str("file", path).Msg("seed file not found, skipping")
			continue
		}
		if _, err := loader.LoadFile(c.Context, kind, path); err != nil {
			return err
		}
	}

	return nil
}

func batchOptions(c *cli.Context) (domain.BatchForecastOptions, error) {
	var opts domain.BatchForecastOptions

	day, err := parseDay(c.String("date"))
	if err != nil {
		return opts, err
	}
	opts.ForecastDate = day
	opts.LookbackDays = c.Int("lookback")
	if opts.LookbackDays < 0 || opts.LookbackDays > forecast.MaxLookbackDays {
		return opts, fmt.Errorf("--lookback must be between 1 and %d", forecast.MaxLookbackDays)
	}

	if c.Bool("no-events") {
		off := false
		opts.IncludeEventAdjustment = &off
	}

	for _, label := range c.StringSlice("category") {
		category, ok := domain.ParseCategory(label)
		if !ok {
			return opts, fmt.Errorf("unknown category %q", label)
		}
		opts.Categories = append(opts.Categories, category)
	}

	return opts, nil
}

func parseDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	day, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", raw, err)
	}
	return day, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
