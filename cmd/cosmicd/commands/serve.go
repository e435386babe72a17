package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Nytuo/cosmiccomics-server/internal/api"
	"github.com/Nytuo/cosmiccomics-server/internal/config"
	"github.com/Nytuo/cosmiccomics-server/internal/covers"
	"github.com/Nytuo/cosmiccomics-server/internal/epub"
	"github.com/Nytuo/cosmiccomics-server/internal/ingest"
	"github.com/Nytuo/cosmiccomics-server/internal/library"
	"github.com/Nytuo/cosmiccomics-server/internal/observability"
	"github.com/Nytuo/cosmiccomics-server/internal/pdfrender"
	"github.com/Nytuo/cosmiccomics-server/internal/progress"
	"github.com/Nytuo/cosmiccomics-server/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the library HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:   cfg.Observability.LogLevel,
		Format:  cfg.Observability.LogFormat,
		Service: "cosmiccomics",
	})

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Init(cmd.Context()); err != nil {
		return fmt.Errorf("init store: %w", err)
	}

	reporter := progress.NewReporter()
	rasterizer := pdfrender.NewRasterizer(reporter)
	converter := epub.NewConverter(reporter, rasterizer, cfg.Browser.ExecPath)
	coordinator := ingest.NewCoordinator(
		observability.Component(logger, "ingest"), reporter, rasterizer, converter)
	filler := covers.NewFiller(
		observability.Component(logger, "covers"), store,
		library.ValidImageExtensions, library.CoverDir(cfg.Library.BasePath))

	handlers := api.NewHandlers(
		observability.Component(logger, "api"),
		cfg.Library.BasePath, coordinator, reporter, filler)
	router := api.NewRouter(handlers, cfg.Server.ReadTimeout)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("HTTP server listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error().Err(err).Msg("server error")
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	// Staging directories are disposable; working directories may hold
	// an in-flight ingestion's partial output and are left for the next
	// ingestion to wipe.
	for _, dir := range []string{
		library.DownloadsDir(cfg.Library.BasePath),
		library.UploadsDir(cfg.Library.BasePath),
	} {
		if err := os.RemoveAll(dir); err != nil {
			logger.Error().Err(err).Str("dir", dir).Msg("staging cleanup failed")
		}
	}

	logger.Info().Msg("server stopped")
	return nil
}
