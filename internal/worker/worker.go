package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photobooth/internal/broker"
	"photobooth/internal/domain"
	repoPhoto "photobooth/internal/repository/photo"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

// Worker feeds the gallery: it applies photo events from the broker, reloads
// the recent photos from the database on an interval, and rotates the photo
// on screen.
type Worker struct {
	consumer     messageConsumer
	photos       photoRepository
	gallery      photoGallery
	logger       *zlog.Zerolog
	strategy     retry.Strategy
	rotateEvery  time.Duration
	refreshEvery time.Duration
}

type Option func(*Worker)

func WithRotateInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.rotateEvery = d
		}
	}
}

func WithRefreshInterval(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.refreshEvery = d
		}
	}
}

// NewWorker builds a worker. consumer may be nil, in which case the gallery
// is kept current by database refreshes alone.
func NewWorker(consumer messageConsumer, photos photoRepository, gallery photoGallery, strategy retry.Strategy, logger *zlog.Zerolog, opts ...Option) *Worker {
	w := &Worker{
		consumer:     consumer,
		photos:       photos,
		gallery:      gallery,
		logger:       logger,
		strategy:     strategy,
		rotateEvery:  5 * time.Second,
		refreshEvery: time.Minute,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	var messages chan kafka.Message
	if w.consumer != nil {
		messages = make(chan kafka.Message, w.gallery.Size())
		go w.consumer.StartConsuming(ctx, messages, w.strategy)
	}

	if err := w.Refresh(ctx); err != nil {
		w.logger.Error().Err(err).Msg("Initial gallery load failed")
	}

	rotate := time.NewTicker(w.rotateEvery)
	defer rotate.Stop()
	refresh := time.NewTicker(w.refreshEvery)
	defer refresh.Stop()

	w.logger.Info().
		Dur("rotate_every", w.rotateEvery).
		Dur("refresh_every", w.refreshEvery).
		Bool("events", w.consumer != nil).
		Msg("Gallery worker started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Gallery worker stopped")
			return nil
		case <-rotate.C:
			if p, ok := w.gallery.Rotate(); ok {
				w.logger.Debug().Str("photo_id", p.ID).Msg("Gallery rotated")
			}
		case <-refresh.C:
			if err := w.Refresh(ctx); err != nil {
				w.logger.Error().Err(err).Msg("Gallery refresh failed")
			}
		case msg, ok := <-messages:
			if !ok {
				messages = nil
				continue
			}
			w.handleMessage(ctx, msg)
		}
	}
}

// Refresh replaces the gallery contents with the newest photos.
func (w *Worker) Refresh(ctx context.Context) error {
	photos, err := w.photos.ListRecent(ctx, w.gallery.Size())
	if err != nil {
		return fmt.Errorf("failed to list recent photos: %w", err)
	}
	w.gallery.Replace(photos)
	w.logger.Debug().Int("photos", len(photos)).Msg("Gallery refreshed")
	return nil
}

func (w *Worker) handleMessage(ctx context.Context, msg kafka.Message) {
	start := time.Now()
	if err := w.safeProcessMessage(ctx, msg); err != nil {
		w.logger.Error().
			Err(err).
			Int64("offset", msg.Offset).
			Msg("Failed to process photo event")
		if !errors.Is(err, broker.ErrInvalidEvent) {
			return
		}
	}

	if err := w.consumer.Commit(ctx, msg); err != nil {
		w.logger.Error().
			Err(err).
			Int64("offset", msg.Offset).
			Msg("Failed to commit photo event")
		return
	}
	w.logger.Debug().
		Int64("offset", msg.Offset).
		Dur("duration", time.Since(start)).
		Msg("Photo event processed and committed")
}

func (w *Worker) safeProcessMessage(ctx context.Context, msg kafka.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().
				Interface("panic", r).
				Int64("offset", msg.Offset).
				Msg("Panic recovered while processing photo event")
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessEvent(ctx, msg.Value)
}

// ProcessEvent applies one encoded photo event to the gallery. Undecodable
// events return broker.ErrInvalidEvent and are committed so they are not
// redelivered forever.
func (w *Worker) ProcessEvent(ctx context.Context, value []byte) error {
	event, err := broker.DecodePhotoEvent(value)
	if err != nil {
		return err
	}

	switch event.Type {
	case domain.EventPhotoDeleted:
		if w.gallery.Remove(event.PhotoID) {
			w.logger.Info().Str("photo_id", event.PhotoID).Msg("Photo removed from gallery")
		}
		return nil

	case domain.EventPhotoUploaded:
		record, err := w.photos.GetByID(ctx, event.PhotoID)
		switch {
		case errors.Is(err, repoPhoto.ErrPhotoNotFound):
			w.logger.Warn().Str("photo_id", event.PhotoID).Msg("Uploaded photo has no record, skipping")
			return nil
		case err != nil:
			w.logger.Warn().Err(err).Str("photo_id", event.PhotoID).Msg("Failed to load photo record, using event data")
			record = &domain.PhotoRecord{
				ID:        event.PhotoID,
				URL:       event.URL,
				CreatedAt: event.CreatedAt,
			}
		}
		if record.IsDeleted {
			return nil
		}
		w.gallery.Add(*record)
		w.logger.Info().Str("photo_id", record.ID).Msg("Photo added to gallery")
		return nil
	}
	return nil
}
