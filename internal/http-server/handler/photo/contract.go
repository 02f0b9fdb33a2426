package photo

import (
	"context"
	"io"

	"photobooth/internal/domain"
	ucPhoto "photobooth/internal/usecase/photo"
)

type photoUsecase interface {
	ListRecent(ctx context.Context, limit int) ([]domain.PhotoRecord, error)
	GetPhoto(ctx context.Context, id string) (*domain.PhotoRecord, error)
	Open(ctx context.Context, id string) (io.ReadCloser, *domain.PhotoRecord, error)
	Count(ctx context.Context) (int, error)
	Delete(ctx context.Context, id string) error
	MarkEdited(ctx context.Context, id string) error
	Pending() ([]string, error)
	RetryPending(ctx context.Context) (*ucPhoto.RetryReport, error)
}
