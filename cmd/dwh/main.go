/*
main.go - Application entry point

PURPOSE:
  Initializes and runs the warehouse engine. Handles configuration,
  dependency injection, and graceful shutdown.

COMMANDS:
  run       execute one full warehouse run (ingest -> cleanse ->
            assemble -> validate -> persist) and exit non-zero when
            the check battery fails
  validate  re-run the check battery against the stored layers
  serve     start the HTTP API; runs can then be triggered over POST

FLAGS:
  --config  path to a YAML config file; defaults apply when omitted

GRACEFUL SHUTDOWN (serve):
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # One-off run against the default dataset layout
  ./dwh run

  # Custom config
  ./dwh --config=warehouse.yml serve

SEE ALSO:
  - config/config.go: configuration schema and defaults
  - api/server.go:    router configuration
*/
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/afmzln/dwh-sql-project/api"
	"github.com/afmzln/dwh-sql-project/cleanse"
	"github.com/afmzln/dwh-sql-project/config"
	"github.com/afmzln/dwh-sql-project/ingest"
	"github.com/afmzln/dwh-sql-project/star"
	"github.com/afmzln/dwh-sql-project/store/sqlite"
	"github.com/afmzln/dwh-sql-project/validate"
	"github.com/afmzln/dwh-sql-project/warehouse"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:     "dwh",
		Version:  version,
		Usage:    "CRM/ERP data warehouse: ingest, cleanse, assemble, validate",
		Compiled: time.Now(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a YAML config file",
			},
		},
		Commands: []*cli.Command{
			runCmd(),
			validateCmd(),
			serveCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	cfg := config.Default()
	return cfg, cfg.Validate()
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "failed to build logger")
	}
	return logger.Sugar(), nil
}

// =============================================================================
// COMMANDS
// =============================================================================

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "execute one full warehouse run",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return errors.Wrap(err, "failed to open warehouse database")
			}
			defer store.Close()

			report, err := executeRun(c.Context, cfg, store, log)
			if err != nil {
				return err
			}
			if !report.Passed() {
				return cli.Exit(fmt.Sprintf("run %s completed with %d violation(s) across %d failing check(s)",
					report.RunID, report.TotalViolations(), len(report.Failing())), 2)
			}
			log.Infow("run passed", "run_id", report.RunID, "checks", len(report.Results))
			return nil
		},
	}
}

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "re-run the check battery against the stored layers",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return errors.Wrap(err, "failed to open warehouse database")
			}
			defer store.Close()

			set, schema, err := loadStoredLayers(c.Context, store)
			if err != nil {
				return err
			}
			report := validate.NewBattery(log).Run(set, schema)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			if !report.Passed() {
				return cli.Exit("", 2)
			}
			return nil
		},
	}
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "start the HTTP API",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.Logging.Level)
			if err != nil {
				return err
			}
			defer log.Sync()

			store, err := sqlite.New(cfg.Database.Path)
			if err != nil {
				return errors.Wrap(err, "failed to open warehouse database")
			}
			defer store.Close()

			run := func(ctx context.Context) (*validate.Report, error) {
				return executeRun(ctx, cfg, store, log)
			}
			handler := api.NewHandler(store, run, log)
			router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 120 * time.Second, // runs execute inline
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Infow("server starting", "addr", server.Addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return errors.Wrap(err, "server failed")
			case <-quit:
			}

			log.Infow("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return errors.Wrap(err, "forced shutdown")
			}
			return nil
		},
	}
}

// =============================================================================
// RUN ORCHESTRATION
// =============================================================================

// loadStoredLayers reads the persisted silver and gold rows back into the
// in-memory shapes the check battery consumes. Side tables the battery does
// not inspect (demographics, locations, categories) stay empty.
func loadStoredLayers(ctx context.Context, store *sqlite.Store) (*warehouse.CleansedSet, *warehouse.StarSchema, error) {
	set := &warehouse.CleansedSet{}
	schema := &warehouse.StarSchema{}
	var err error

	if set.Customers, err = store.SilverCustomers(ctx); err != nil {
		return nil, nil, err
	}
	if set.Products, err = store.SilverProducts(ctx); err != nil {
		return nil, nil, err
	}
	if set.SalesLines, err = store.SilverSales(ctx); err != nil {
		return nil, nil, err
	}
	if schema.Customers, err = store.GoldCustomers(ctx); err != nil {
		return nil, nil, err
	}
	if schema.Products, err = store.GoldProducts(ctx); err != nil {
		return nil, nil, err
	}
	if schema.Sales, err = store.GoldSales(ctx); err != nil {
		return nil, nil, err
	}
	return set, schema, nil
}

// executeRun walks the full bronze -> silver -> gold path, persists every
// layer, and stores the validation report. The report is returned even
// when checks fail; only stage errors abort the run.
func executeRun(ctx context.Context, cfg *config.Config, store *sqlite.Store, log *zap.SugaredLogger) (*validate.Report, error) {
	started := time.Now()

	snapshot, err := ingest.NewReader(cfg.Sources.CRMDir, cfg.Sources.ERPDir, log).LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	pipeline := cleanse.NewPipeline(cleanse.MalformedKeyPolicy(cfg.Cleansing.MalformedKeyPolicy), log)
	cleansed, err := pipeline.Run(ctx, snapshot)
	if err != nil {
		return nil, err
	}

	schema, err := star.NewAssembler(log).Assemble(ctx, cleansed)
	if err != nil {
		return nil, err
	}

	report := validate.NewBattery(log).Run(cleansed, schema)

	if err := store.ReplaceSilver(ctx, cleansed); err != nil {
		return nil, err
	}
	if err := store.ReplaceGold(ctx, schema); err != nil {
		return nil, err
	}
	if err := store.SaveReport(ctx, report); err != nil {
		return nil, err
	}

	log.Infow("run completed",
		"run_id", report.RunID,
		"duration", time.Since(started),
		"customers", len(schema.Customers),
		"products", len(schema.Products),
		"sales", len(schema.Sales),
		"passed", report.Passed(),
	)
	return report, nil
}
