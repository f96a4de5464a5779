package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"MediaScope/internal/config"
	"MediaScope/internal/extract"
	"MediaScope/internal/fetcher"
	"MediaScope/internal/httpapi"
	"MediaScope/internal/infrastructure/classifier"
	"MediaScope/internal/infrastructure/scheduler"
	"MediaScope/internal/infrastructure/storage"
	"MediaScope/internal/infrastructure/translation"
	"MediaScope/internal/infrastructure/video"
	"MediaScope/internal/locator"
	"MediaScope/internal/logging"
	"MediaScope/internal/metrics"
	"MediaScope/internal/pipeline"
	"MediaScope/pkg/logger"
)

// Application wires configuration to adapters, pipeline, and the HTTP server.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	server  *httpapi.Server
	db      *sql.DB
	sweeper *scheduler.RetentionSweeper
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	var db *sql.DB
	if cfg.Database.DSN != "" {
		opened, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		db = opened
	} else {
		baseLogger.Warn("no database configured, history persistence disabled")
	}
	history := storage.NewPostgresRepository(db)

	classifierClient := classifier.NewClient(
		cfg.Classifier.Endpoint, cfg.Classifier.APIKey, cfg.Classifier.Timeout)

	frameSource := video.NewFFmpegSource(
		cfg.Pipeline.TempDir, cfg.Pipeline.DecodeTimeout,
		baseLogger.With("component", "video.ffmpeg"))
	resolver := video.NewYtdlpResolver(
		cfg.YouTube.BinaryPath, cfg.YouTube.MaxHeight, cfg.Pipeline.MaxDownloadBytes,
		baseLogger.With("component", "video.ytdlp"))

	registry := extract.NewRegistry()
	registry.Register(extract.NewImageExtractor(classifierClient))
	videoExtractor := extract.NewVideoExtractor(
		frameSource, classifierClient, cfg.Pipeline.FrameCap,
		baseLogger.With("component", "extract.video"))
	registry.Register(videoExtractor)
	registry.Register(extract.NewYouTubeExtractor(videoExtractor))
	registry.Register(extract.NewWebPageExtractor())
	registry.Register(extract.NewPDFExtractor(cfg.Pipeline.PageCap))
	registry.Register(extract.NewTextExtractor())

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector())
	promRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	analyzer := pipeline.New(pipeline.Deps{
		Locator: locator.New(nil, baseLogger.With("component", "locator")),
		Fetcher: fetcher.New(nil, resolver, fetcher.Config{
			TempDir:  cfg.Pipeline.TempDir,
			MaxBytes: cfg.Pipeline.MaxDownloadBytes,
			Timeout:  cfg.Pipeline.FetchTimeout,
		}, baseLogger.With("component", "fetcher")),
		Extractors: registry,
		History:    history,
		Translator: translation.New(cfg.Translation.Language),
		Metrics:    metrics.New(promRegistry),
		Logger:     baseLogger.With("component", "pipeline"),
		Workers:    cfg.Pipeline.BatchWorkers,
	})

	server := httpapi.NewServer(analyzer, history, promRegistry,
		baseLogger.With("component", "http"))

	sweeper := scheduler.NewRetentionSweeper(history,
		cfg.History.MaxAge, cfg.History.SweepInterval,
		baseLogger.With("component", "retention"))

	return &Application{cfg: cfg, logger: baseLogger, server: server, db: db, sweeper: sweeper}, nil
}

// Run serves the HTTP API until the context is canceled, then shuts down
// gracefully.
func (a *Application) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr,
		Handler:           a.server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.NewStdBridge(a.logger.With("component", "http.server"), slog.LevelWarn),
	}

	a.sweeper.Start(ctx)
	defer a.sweeper.Stop()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.HTTP.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", "error", err)
		}
	}
	return nil
}
