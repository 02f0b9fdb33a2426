package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"path"
	"strings"
	"time"

	"photobooth/internal/domain"
	repoPhoto "photobooth/internal/repository/photo"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

type RetryReport struct {
	Uploaded  int      `json:"uploaded"`
	Failed    int      `json:"failed"`
	Remaining []string `json:"remaining"`
}

// PhotoUsecase uploads photos to object storage and keeps their records.
// An upload that fails is spooled locally so the image is never lost.
type PhotoUsecase struct {
	repo      photoRepository
	fileRepo  fileRepository
	producer  eventProducer
	spool     pendingSpool
	logger    *zlog.Zerolog
	maxUpload int
	now       func() time.Time
}

func NewPhotoUsecase(repo photoRepository, fileRepo fileRepository, producer eventProducer, spool pendingSpool, logger *zlog.Zerolog, maxUpload int) *PhotoUsecase {
	if maxUpload <= 0 {
		maxUpload = domain.DefaultMaxUpload
	}
	return &PhotoUsecase{
		repo:      repo,
		fileRepo:  fileRepo,
		producer:  producer,
		spool:     spool,
		logger:    logger,
		maxUpload: maxUpload,
		now:       time.Now,
	}
}

// Upload stores the photo and its record. When storage or the database
// fails the bytes are spooled for RetryPending and the error is returned.
func (u *PhotoUsecase) Upload(ctx context.Context, data []byte, filename string, edited bool) (*domain.PhotoRecord, error) {
	record, err := u.store(ctx, data, filename, edited)
	if err == nil {
		return record, nil
	}
	if errors.Is(err, ErrStorageError) || errors.Is(err, ErrDatabaseError) {
		name, spoolErr := u.spool.Put(filename, data, edited)
		if spoolErr != nil {
			u.logger.Error().Err(spoolErr).Str("filename", filename).Msg("Failed to spool photo after upload error")
		} else {
			u.logger.Warn().Err(err).Str("filename", filename).Str("pending", name).Msg("Upload failed, photo kept for retry")
		}
	}
	return nil, err
}

func (u *PhotoUsecase) store(ctx context.Context, data []byte, filename string, edited bool) (*domain.PhotoRecord, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPhoto
	}
	if len(data) > u.maxUpload {
		return nil, ErrFileTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFileFormat, err)
	}

	now := u.now()
	id := uuid.New().String()
	objectName := objectPath(id, format, edited, now)
	mimeType := "image/" + format

	url, err := u.fileRepo.Upload(ctx, objectName, data, mimeType)
	if err != nil {
		u.logger.Error().Err(err).Str("filename", filename).Msg("Failed to upload photo")
		return nil, fmt.Errorf("%w: %v", ErrStorageError, err)
	}

	record := &domain.PhotoRecord{
		ID:        id,
		Filename:  path.Base(filename),
		FilePath:  objectName,
		URL:       url,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Size:      int64(len(data)),
		MimeType:  mimeType,
		IsEdited:  edited,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := u.repo.Save(ctx, record); err != nil {
		if delErr := u.fileRepo.Delete(ctx, objectName); delErr != nil {
			u.logger.Error().Err(delErr).Str("path", objectName).Msg("Failed to remove orphaned object")
		}
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	u.publish(ctx, domain.PhotoEvent{
		Type:      domain.EventPhotoUploaded,
		PhotoID:   id,
		URL:       url,
		CreatedAt: now,
	})

	u.logger.Info().
		Str("photo_id", id).
		Str("filename", record.Filename).
		Bool("edited", edited).
		Int64("size", record.Size).
		Msg("Photo uploaded")
	return record, nil
}

func (u *PhotoUsecase) GetPhoto(ctx context.Context, id string) (*domain.PhotoRecord, error) {
	return u.repo.GetByID(ctx, id)
}

// Open returns the stored image of a photo. The caller closes the reader.
func (u *PhotoUsecase) Open(ctx context.Context, id string) (io.ReadCloser, *domain.PhotoRecord, error) {
	record, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	body, err := u.fileRepo.Get(ctx, record.FilePath)
	if err != nil {
		if errors.Is(err, repoPhoto.ErrObjectNotFound) {
			return nil, nil, repoPhoto.ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrStorageError, err)
	}
	return body, record, nil
}

func (u *PhotoUsecase) Count(ctx context.Context) (int, error) {
	n, err := u.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}
	return n, nil
}

// ListRecent returns the newest photos. limit is clamped to
// [1, DefaultPhotoListMax]; zero or less means the gallery size.
func (u *PhotoUsecase) ListRecent(ctx context.Context, limit int) ([]domain.PhotoRecord, error) {
	switch {
	case limit <= 0:
		limit = domain.DefaultGallerySize
	case limit > domain.DefaultPhotoListMax:
		limit = domain.DefaultPhotoListMax
	}

	photos, err := u.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

// Delete soft-deletes the record; the stored object is kept.
func (u *PhotoUsecase) Delete(ctx context.Context, id string) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repoPhoto.ErrPhotoNotFound) {
			return repoPhoto.ErrPhotoNotFound
		}
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	u.publish(ctx, domain.PhotoEvent{
		Type:      domain.EventPhotoDeleted,
		PhotoID:   id,
		CreatedAt: u.now(),
	})

	u.logger.Info().Str("photo_id", id).Msg("Photo deleted")
	return nil
}

func (u *PhotoUsecase) MarkEdited(ctx context.Context, id string) error {
	if err := u.repo.MarkEdited(ctx, id); err != nil {
		if errors.Is(err, repoPhoto.ErrPhotoNotFound) {
			return repoPhoto.ErrPhotoNotFound
		}
		return fmt.Errorf("failed to mark photo edited: %w", err)
	}
	return nil
}

func (u *PhotoUsecase) Pending() ([]string, error) {
	pending, err := u.spool.List()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(pending))
	for _, p := range pending {
		names = append(names, p.Name)
	}
	return names, nil
}

// RetryPending uploads spooled photos, oldest first, and removes each one
// that succeeds.
func (u *PhotoUsecase) RetryPending(ctx context.Context) (*RetryReport, error) {
	pending, err := u.spool.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending photos: %w", err)
	}

	report := &RetryReport{Remaining: []string{}}
	for _, p := range pending {
		if ctx.Err() != nil {
			report.Remaining = append(report.Remaining, p.Name)
			continue
		}

		data, err := u.spool.Read(p)
		if err == nil {
			_, err = u.store(ctx, data, p.Filename, p.Edited)
		}
		if err != nil {
			u.logger.Warn().Err(err).Str("pending", p.Name).Msg("Pending upload failed again")
			report.Failed++
			report.Remaining = append(report.Remaining, p.Name)
			continue
		}

		if err := u.spool.Remove(p); err != nil {
			u.logger.Error().Err(err).Str("pending", p.Name).Msg("Failed to remove uploaded pending photo")
		}
		report.Uploaded++
	}

	u.logger.Info().
		Int("uploaded", report.Uploaded).
		Int("failed", report.Failed).
		Msg("Pending uploads retried")
	return report, nil
}

func (u *PhotoUsecase) publish(ctx context.Context, event domain.PhotoEvent) {
	if u.producer == nil {
		return
	}
	if err := u.producer.Publish(ctx, event); err != nil {
		u.logger.Error().Err(err).Str("photo_id", event.PhotoID).Str("type", string(event.Type)).Msg("Failed to publish photo event")
	}
}

func objectPath(id, format string, edited bool, t time.Time) string {
	prefix := domain.PathPrefixPhotos
	if edited {
		prefix = domain.PathPrefixEdited
	}
	ext := "." + strings.ToLower(format)
	if format == "jpeg" {
		ext = ".jpg"
	}
	return prefix + t.Format("2006/01/02") + "/" + id + ext
}
