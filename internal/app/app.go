package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	kafka_impl "photobooth/internal/broker/kafka"
	"photobooth/internal/camera"
	"photobooth/internal/config"
	"photobooth/internal/domain"
	"photobooth/internal/eventbus"
	camera_h "photobooth/internal/http-server/handler/camera"
	catalog_h "photobooth/internal/http-server/handler/catalog"
	events_h "photobooth/internal/http-server/handler/events"
	photo_h "photobooth/internal/http-server/handler/photo"
	session_h "photobooth/internal/http-server/handler/session"
	"photobooth/internal/http-server/router"
	"photobooth/internal/liveview"
	"photobooth/internal/repository/asset"
	minio_repo "photobooth/internal/repository/photo/cloud/minio"
	postgres_repo "photobooth/internal/repository/photo/db/postgres"
	catalog_uc "photobooth/internal/usecase/catalog"
	"photobooth/internal/usecase/composer"
	photo_uc "photobooth/internal/usecase/photo"
	session_uc "photobooth/internal/usecase/session"
	"photobooth/internal/watcher"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// App is the kiosk backend process.
type App struct {
	cfg      *config.Config
	server   *http.Server
	logger   *zlog.Zerolog
	db       *dbpg.DB
	producer *kafka_impl.ProducerClient
	watcher  *watcher.Watcher
	fileRepo *minio_repo.FileRepository
}

// NewApp wires the kiosk. logs receives a copy of every log line for the
// debug endpoint.
func NewApp(cfg *config.Config, logger *zlog.Zerolog, logs *eventbus.LogRing) (*App, error) {
	retries := cfg.DefaultRetryStrategy()

	captureDir, err := filepath.Abs(cfg.Watcher.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve capture dir: %w", err)
	}
	assetsDir, err := filepath.Abs(cfg.Composer.AssetsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assets dir: %w", err)
	}

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	fileRepo, err := minio_repo.NewMinIORepository(cfg.Storage, retries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	photoRepo := postgres_repo.NewPhotosRepository(db, retries)
	spool := asset.NewSpool(cfg.Storage.SpoolDir)

	var producer *kafka_impl.ProducerClient
	var events interface {
		Publish(ctx context.Context, event domain.PhotoEvent) error
	}
	if cfg.Kafka.Enabled {
		producer = kafka_impl.NewProducerClient(cfg.Kafka, retries)
		events = producer
	}

	photoUsecase := photo_uc.NewPhotoUsecase(photoRepo, fileRepo, events, spool, logger, domain.DefaultMaxUpload)

	httpClient := &http.Client{Timeout: cfg.Catalog.Timeout}
	catalog := catalog_uc.NewLoader(httpClient, retries, logger).Load(context.Background(), cfg.Catalog.URL)

	fonts, err := composer.NewFontRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}

	assets := asset.NewLoader(assetsDir, httpClient)
	imageComposer := composer.NewComposer(assets, catalog, fonts, logger,
		composer.WithCanvasSize(cfg.Composer.CanvasSize),
		composer.WithPreviewSize(cfg.Composer.PreviewSize),
		composer.WithWrapWidth(float64(cfg.Composer.WrapWidth)),
		composer.WithQuality(cfg.Composer.Quality),
	)

	photos := asset.NewPhotos(captureDir, httpClient)

	captureBus := eventbus.New[domain.CaptureEvent](eventbus.DefaultBuffer)

	var captureWatcher *watcher.Watcher
	if cfg.Watcher.Enabled {
		var overlay interface {
			Apply(ctx context.Context, src, dst string) error
		}
		if cfg.Watcher.OverlayPath != "" {
			overlayPath, err := filepath.Abs(cfg.Watcher.OverlayPath)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve overlay path: %w", err)
			}
			overlayAssets := asset.NewLoader(filepath.Dir(overlayPath), httpClient)
			applier := composer.NewOverlayApplier(overlayAssets, overlayPath, cfg.Composer.Quality)
			logger.Info().Str("overlay", applier.OverlayPath()).Msg("Capture overlay configured")
			overlay = applier
		}

		captureWatcher = watcher.New(captureDir, overlay, captureBus, logger,
			watcher.WithSettleDelay(cfg.Watcher.SettleDelay),
			watcher.WithProcessedPrefix(cfg.Watcher.ProcessedPrefix),
		)
	}

	captureStore, err := config.LoadCaptureStore(cfg.InitialCapture(), cfg.Camera.SettingsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load camera settings: %w", err)
	}
	if err := captureStore.Rejected(); err != nil {
		logger.Warn().Err(err).Msg("Saved camera settings are invalid, using configured defaults")
	}

	cameraClient := camera.NewClient(captureStore, logger)
	streamer := liveview.NewStreamer(cameraClient, logger)

	sessions := session_uc.NewManager(catalog, imageComposer, photos, photoUsecase, logger,
		session_uc.WithCanvasSize(cfg.Composer.CanvasSize),
		session_uc.WithMaxTextLength(cfg.Composer.MaxText),
	)

	logger.Info().
		Str("capture_dir", captureDir).
		Str("assets_dir", assetsDir).
		Str("spool_dir", spool.Dir()).
		Int("canvas", imageComposer.CanvasSize()).
		Str("catalog", catalog.Source()).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("Kiosk configured")

	h := &router.Handler{
		CameraHandler:  camera_h.NewCameraHandler(cameraClient, streamer, captureStore, photos, logger),
		CatalogHandler: catalog_h.NewCatalogHandler(catalog, logger),
		SessionHandler: session_h.NewSessionHandler(sessions, logger),
		PhotoHandler:   photo_h.NewPhotoHandler(photoUsecase, logger),
		EventsHandler:  events_h.NewEventsHandler(captureBus, logs, logger),
	}

	mux := router.SetupRouter(h, router.Options{
		APIKey:    cfg.Server.APIKey,
		StaticDir: cfg.Server.StaticDir,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:      cfg,
		server:   server,
		logger:   logger,
		db:       db,
		producer: producer,
		watcher:  captureWatcher,
		fileRepo: fileRepo,
	}, nil
}

func (a *App) Run() error {
	a.logger.Info().Str("addr", a.cfg.Server.Addr).Msg("Starting server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.handleSignals(cancel)

	// Storage may be offline at boot; uploads spool until it is back.
	if err := a.fileRepo.EnsureBucket(ctx); err != nil {
		a.logger.Warn().Err(err).Str("bucket", a.cfg.Storage.Bucket).Msg("Object storage unavailable")
	}

	if a.watcher != nil {
		if err := a.watcher.Start(ctx); err != nil {
			return fmt.Errorf("failed to start capture watcher: %w", err)
		}
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		a.close()
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}

		a.close()
		a.logger.Info().Msg("Server stopped gracefully")
		return nil
	}
}

func (a *App) close() {
	if a.watcher != nil {
		a.watcher.Stop()
	}

	if a.db != nil && a.db.Master != nil {
		a.db.Master.Close()
	}

	if a.producer != nil {
		a.producer.Close()
	}
}

func (a *App) handleSignals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info().Str("signal", sig.String()).Msg("Received signal")
	cancel()
}
