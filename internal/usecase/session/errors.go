package session

import "errors"

var (
	ErrNoSession       = errors.New("no active edit session")
	ErrFrameNotFound   = errors.New("frame not found")
	ErrUnknownIcon     = errors.New("unknown overlay icon")
	ErrOverlayNotFound = errors.New("overlay not found")
	ErrInvalidSize     = errors.New("overlay size must be positive")
)
