package camera

import "errors"

var (
	ErrCaptureCancelled = errors.New("capture cancelled")
	ErrNoImageData      = errors.New("capture response contained no image data")
	ErrUnexpectedStatus = errors.New("unexpected camera response status")
	ErrTimeout          = errors.New("camera request timed out")
)
