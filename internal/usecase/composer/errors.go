package composer

import "errors"

var (
	ErrNoPhoto      = errors.New("no base photo")
	ErrInvalidPhoto = errors.New("base photo cannot be decoded")
	ErrEncode       = errors.New("failed to encode composed image")
)

var ErrOverlayMissing = errors.New("overlay asset unavailable")
