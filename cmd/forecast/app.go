package main

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/cache"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/config"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/jobs"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/report"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/repository/postgres"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/seed"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/service"
	"github.com/andresuchdata/autopo-py/forecast-go/internal/storage"
	"github.com/andresuchdata/autopo-py/forecast-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

type contextKey string

const appKey contextKey = "app"

// app holds everything a command needs, built once per invocation
type app struct {
	cfg         *config.Config
	loc         *time.Location
	db          *postgres.DB
	forecasts   *service.ForecastService
	aggregation *jobs.AggregationJob
	objects     storage.ObjectStorage
	exporter    *report.AlertExporter
}

func initApp(c *cli.Context) error {
	cfg := config.Load()
	if url := c.String("db-url"); url != "" {
		cfg.Database.URL = url
	}
	logger.Setup(cfg.LogLevel, cfg.LogJSON)

	loc, err := cfg.Forecast.Location()
	if err != nil {
		return err
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("redis unavailable, forecast cache disabled")
		forecastCache = cache.NewNoopForecastCache()
	}

	products := postgres.NewProductRepository(db)
	sales := postgres.NewSalesRepository(db, loc)
	events := postgres.NewEventRepository(db)
	runs := postgres.NewJobRunRepository(db)

	forecasts := service.NewForecastService(service.Repositories{
		Products:   products,
		Aggregates: sales,
		Sales:      sales,
		Events:     events,
	}, forecastCache, cfg.Forecast, loc)

	a := &app{
		cfg:         cfg,
		loc:         loc,
		db:          db,
		forecasts:   forecasts,
		aggregation: jobs.NewAggregationJob(sales, sales, events, runs, forecasts, loc),
	}

	if cfg.Storage.Enabled {
		client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return fmt.Errorf("failed to init storage: %w", err)
		}
		a.objects = client
		a.exporter = report.NewAlertExporter(client, cfg.Storage.Prefix)
	}

	c.Context = context.WithValue(c.Context, appKey, a)
	return nil
}

func closeApp(c *cli.Context) error {
	if a, ok := c.Context.Value(appKey).(*app); ok && a != nil && a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *app) loader() *seed.Loader {
	return seed.NewLoader(postgres.NewCatalogRepository(a.db), a.loc)
}

func fromContext(c *cli.Context) *app {
	return c.Context.Value(appKey).(*app)
}
