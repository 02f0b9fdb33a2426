package session

import (
	"context"

	"photobooth/internal/domain"
	"photobooth/internal/usecase/session"
)

type sessionManager interface {
	Begin(photo string) *session.EditSession
	Current() (*session.EditSession, error)
	End()
	Preview(ctx context.Context) ([]byte, error)
	Finalize(ctx context.Context) (*domain.PhotoRecord, error)
}
