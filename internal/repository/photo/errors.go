package photo

import "errors"

var (
	ErrPhotoNotFound  = errors.New("photo not found")
	ErrObjectNotFound = errors.New("object not found")
	ErrStorageError   = errors.New("storage error")
	ErrDuplicateKey   = errors.New("duplicate key violation")
)
