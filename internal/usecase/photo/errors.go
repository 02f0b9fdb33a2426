package photo

import "errors"

var (
	ErrEmptyPhoto        = errors.New("empty photo")
	ErrInvalidFileFormat = errors.New("invalid file format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrStorageError      = errors.New("storage error")
	ErrDatabaseError     = errors.New("database error")
)
