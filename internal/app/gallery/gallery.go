package gallery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "photobooth/internal/broker/kafka"
	"photobooth/internal/config"
	gallery_h "photobooth/internal/http-server/handler/gallery"
	"photobooth/internal/http-server/router"
	postgres_repo "photobooth/internal/repository/photo/db/postgres"
	gallery_uc "photobooth/internal/usecase/gallery"
	"photobooth/internal/worker"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// App is the videotron process: it follows photo events and serves the
// rotating gallery.
type App struct {
	cfg      *config.Config
	logger   *zlog.Zerolog
	db       *dbpg.DB
	consumer *kafka_impl.ConsumerClient
	worker   *worker.Worker
	server   *http.Server
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}
	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	photoRepo := postgres_repo.NewPhotosRepository(db, retries)
	gallery := gallery_uc.New(cfg.Gallery.Size)

	var consumer *kafka_impl.ConsumerClient
	var messages interface {
		StartConsuming(ctx context.Context, out chan<- kafka.Message, strategy retry.Strategy)
		Commit(ctx context.Context, msg kafka.Message) error
	}
	if cfg.Kafka.Enabled {
		consumer = kafka_impl.NewConsumerClient(cfg.Kafka)
		messages = consumer
	}

	logger.Info().
		Strs("brokers", cfg.Kafka.Brokers).
		Str("topic", cfg.Kafka.Topic).
		Str("group", cfg.Kafka.GroupID).
		Bool("kafka", cfg.Kafka.Enabled).
		Int("size", gallery.Size()).
		Msg("Gallery configuration")

	w := worker.NewWorker(messages, photoRepo, gallery, retries, logger,
		worker.WithRotateInterval(cfg.Gallery.RotateInterval),
		worker.WithRefreshInterval(cfg.Gallery.RefreshEvery),
	)

	mux := router.SetupGalleryRouter(gallery_h.NewGalleryHandler(gallery, logger), router.Options{
		APIKey:    cfg.Server.APIKey,
		StaticDir: cfg.Server.StaticDir,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Gallery.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		consumer: consumer,
		worker:   w,
		server:   server,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Gallery.Addr).Msg("Starting gallery")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		a.logger.Info().Str("signal", sig.String()).Msg("Received shutdown signal, stopping gallery...")
		cancel()
	}()

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- a.worker.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Gallery server error")
		runErr = err
		cancel()
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down gallery gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("Gallery server shutdown failed")
	}

	if err := <-workerDone; err != nil {
		a.logger.Error().Err(err).Msg("Gallery worker failed")
	}

	if a.consumer != nil {
		a.consumer.Close()
	}
	if a.db != nil && a.db.Master != nil {
		a.db.Master.Close()
	}

	a.logger.Info().Msg("Gallery stopped gracefully")
	return runErr
}
