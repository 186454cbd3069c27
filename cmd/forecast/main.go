package main

import (
	"os"

	"github.com/andresuchdata/autopo-py/forecast-go/internal/seed"
	"github.com/andresuchdata/autopo-py/forecast-go/pkg/logger"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (overrides DB_* settings)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func newDateFlag(usage string) *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "date",
		Usage: usage + " (YYYY-MM-DD)",
	}
}

func forecastFlags() []cli.Flag {
	return []cli.Flag{
		newDBURLFlag(),
		newDateFlag("Forecast date, defaults to today"),
		&cli.IntFlag{
			Name:  "lookback",
			Usage: "Lookback window in days",
		},
		&cli.BoolFlag{
			Name:  "no-events",
			Usage: "Do not apply event multipliers",
		},
		&cli.StringSliceFlag{
			Name:  "category",
			Usage: "Restrict batch forecasts to categories (repeatable)",
		},
	}
}

func seedCommand(kind seed.Kind, usage string) *cli.Command {
	return &cli.Command{
		Name:  string(kind),
		Usage: usage,
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:     "file",
				Usage:    "CSV file to load",
				Required: true,
			},
		},
		Before: initApp,
		After:  closeApp,
		Action: func(c *cli.Context) error {
			_, err := fromContext(c).loader().LoadFile(c.Context, kind, c.String("file"))
			return err
		},
	}
}

func main() {
	app := &cli.App{
		Name:  "forecast",
		Usage: "Demand forecasting and reorder planning for the store catalogue",
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (and the daily aggregation scheduler when enabled)",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initApp,
				After:  closeApp,
				Action: runServe,
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending database migrations",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initApp,
				After:  closeApp,
				Action: runMigrate,
			},
			{
				Name:  "aggregate",
				Usage: "Aggregate completed sales for one day",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newDateFlag("Day to aggregate, defaults to yesterday"),
				},
				Before: initApp,
				After:  closeApp,
				Action: runAggregate,
			},
			{
				Name:  "backfill",
				Usage: "Aggregate every day in a range",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.StringFlag{Name: "from", Usage: "First day (YYYY-MM-DD)", Required: true},
					&cli.StringFlag{Name: "to", Usage: "Last day (YYYY-MM-DD), defaults to yesterday"},
				},
				Before: initApp,
				After:  closeApp,
				Action: runBackfill,
			},
			{
				Name:  "forecast",
				Usage: "Print forecasts for one product or the whole catalogue",
				Flags: append(forecastFlags(), &cli.Int64Flag{
					Name:  "product",
					Usage: "Product id; omit for all products",
				}),
				Before: initApp,
				After:  closeApp,
				Action: runForecast,
			},
			{
				Name:  "alerts",
				Usage: "Print reorder alerts, optionally exporting them as CSV to object storage",
				Flags: append(forecastFlags(),
					&cli.BoolFlag{
						Name:  "export",
						Usage: "Upload the alerts CSV to the configured bucket",
					},
					&cli.BoolFlag{
						Name:  "list-exports",
						Usage: "List alert CSVs already uploaded (for --date when given) instead of computing alerts",
					},
				),
				Before: initApp,
				After:  closeApp,
				Action: runAlerts,
			},
			{
				Name:  "seed",
				Usage: "Load CSV exports (products, sales, events) into the database",
				Subcommands: []*cli.Command{
					seedCommand(seed.KindProducts, "Upsert products and inventory by barcode"),
					seedCommand(seed.KindSales, "Insert transactions, grouped by transaction_ref"),
					seedCommand(seed.KindEvents, "Insert demand events"),
					{
						Name:  "all",
						Usage: "Load products.csv, sales.csv and events.csv from a directory or bucket prefix, in that order",
						Flags: []cli.Flag{
							newDBURLFlag(),
							&cli.StringFlag{
								Name:    "data-dir",
								Usage:   "Directory containing the seed CSV files",
								Value:   "./data/seeds",
								EnvVars: []string{"SEED_DATA_DIR"},
							},
							&cli.StringFlag{
								Name:    "bucket-prefix",
								Usage:   "Download the seed CSV files from this object storage prefix instead of data-dir",
								EnvVars: []string{"SEED_BUCKET_PREFIX"},
							},
						},
						Before: initApp,
						After:  closeApp,
						Action: runSeedAll,
					},
				},
			},
			{
				Name:  "reorder-points",
				Usage: "Print dynamic reorder points",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.Int64Flag{Name: "product", Usage: "Product id; omit for all products"},
				},
				Before: initApp,
				After:  closeApp,
				Action: runReorderPoints,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}
