package worker

import (
	"context"

	"photobooth/internal/domain"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/retry"
)

type messageConsumer interface {
	StartConsuming(ctx context.Context, out chan<- kafka.Message, strategy retry.Strategy)
	Commit(ctx context.Context, msg kafka.Message) error
}

type photoRepository interface {
	GetByID(ctx context.Context, id string) (*domain.PhotoRecord, error)
	ListRecent(ctx context.Context, limit int) ([]domain.PhotoRecord, error)
}

type photoGallery interface {
	Size() int
	Replace(photos []domain.PhotoRecord)
	Add(p domain.PhotoRecord)
	Remove(id string) bool
	Rotate() (domain.PhotoRecord, bool)
}
