// Command housemap runs the house price map service.
//
//	housemap serve     load data, build a snapshot, and serve the dashboard
//	housemap geocache  build or refresh the postcode cache and exit
//	housemap export    run the pipeline once and write the export sinks
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/fernhall/house-price-map-service/internal/adapter/http"
	kafkaadapter "github.com/fernhall/house-price-map-service/internal/adapter/kafka"
	"github.com/fernhall/house-price-map-service/internal/adapter/postcodes"
	"github.com/fernhall/house-price-map-service/internal/adapter/pricecsv"
	"github.com/fernhall/house-price-map-service/internal/config"
	"github.com/fernhall/house-price-map-service/internal/observability"
	"github.com/fernhall/house-price-map-service/internal/pipeline"
	"github.com/fernhall/house-price-map-service/internal/storage"
)

func main() {
	root := &cobra.Command{
		Use:          "housemap",
		Short:        "UK house price heatmap service",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), geocacheCmd(), exportCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// deps is everything the subcommands share, built once from the environment.
type deps struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
}

func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &deps{
		cfg:     cfg,
		logger:  observability.NewLogger(cfg),
		metrics: observability.NewMetrics(),
	}, nil
}

// buildPipeline wires the loader, lookup table, and configured export sinks.
// The returned closers shut down the sinks after the final run.
func buildPipeline(ctx context.Context, d *deps) (*pipeline.Pipeline, []func() error, error) {
	table := postcodes.Open(ctx, d.cfg, d.logger, d.metrics)
	loader := pricecsv.NewLoader(d.cfg, d.logger, d.metrics)
	p := pipeline.New(loader, table, d.logger, d.metrics, nil)

	var closers []func() error

	if d.cfg.KafkaEnabled {
		kw := kafkaadapter.NewWriter(d.cfg, d.logger)
		p.AddPublisher(kw)
		closers = append(closers, kw.Close)
		d.logger.Info("kafka export enabled", "topic", d.cfg.KafkaSinkTopic)
	}
	if d.cfg.PostgresDSN != "" {
		pw, err := storage.NewPostgresWriter(ctx, d.cfg.PostgresDSN)
		if err != nil {
			return nil, closers, err
		}
		p.AddPublisher(pw)
		closers = append(closers, pw.Close)
		d.logger.Info("postgres export enabled")
	}

	return p, closers, nil
}

func closeAll(logger *slog.Logger, closers []func() error) {
	for _, c := range closers {
		if err := c(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Build a snapshot from the price extracts and serve the dashboard",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, closers, err := buildPipeline(ctx, d)
			defer closeAll(d.logger, closers)
			if err != nil {
				return err
			}

			srv := httpadapter.NewServer(d.cfg.HTTPAddr, p, d.logger)

			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					d.logger.Error("http server error", "error", err)
				}
			}()

			go func() {
				if err := p.Run(ctx); err != nil {
					d.logger.Error("pipeline error", "error", err)
				}
			}()

			<-ctx.Done()
			d.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				d.logger.Error("http server shutdown error", "error", err)
			}

			d.logger.Info("shutdown complete")
			return nil
		},
	}
}

func geocacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "geocache",
		Short: "Build or refresh the postcode coordinate cache and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// Force a rebuild by removing the existing artifact first.
			if err := os.Remove(d.cfg.PostcodeCachePath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove stale cache: %w", err)
			}

			table := postcodes.Open(ctx, d.cfg, d.logger, d.metrics)
			if table.Len() == 0 {
				return errors.New("postcode dataset unavailable, cache not written")
			}
			d.logger.Info("postcode cache ready", "path", d.cfg.PostcodeCachePath, "entries", table.Len())
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run the pipeline once and write district aggregates to the export sinks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := buildDeps()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			p, closers, err := buildPipeline(ctx, d)
			defer closeAll(d.logger, closers)
			if err != nil {
				return err
			}

			if csvPath == "" {
				csvPath = d.cfg.ExportCSVPath
			}
			p.AddPublisher(storage.NewCSVWriter(csvPath))

			if err := p.Run(ctx); err != nil {
				return err
			}

			snapshot := p.Snapshot()
			d.logger.Info("export complete",
				"snapshot_id", snapshot.ID,
				"districts", len(snapshot.Districts),
				"csv", csvPath,
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV output path (defaults to EXPORT_CSV_PATH)")
	return cmd
}
