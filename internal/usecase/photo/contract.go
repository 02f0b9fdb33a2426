package photo

import (
	"context"
	"io"

	"photobooth/internal/domain"
	"photobooth/internal/repository/asset"
)

type photoRepository interface {
	Save(ctx context.Context, p *domain.PhotoRecord) error
	GetByID(ctx context.Context, id string) (*domain.PhotoRecord, error)
	ListRecent(ctx context.Context, limit int) ([]domain.PhotoRecord, error)
	Delete(ctx context.Context, id string) error
	MarkEdited(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type fileRepository interface {
	Upload(ctx context.Context, objectName string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, objectName string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectName string) error
}

type eventProducer interface {
	Publish(ctx context.Context, event domain.PhotoEvent) error
}

type pendingSpool interface {
	Put(filename string, data []byte, edited bool) (string, error)
	List() ([]asset.PendingFile, error)
	Read(p asset.PendingFile) ([]byte, error)
	Remove(p asset.PendingFile) error
}
