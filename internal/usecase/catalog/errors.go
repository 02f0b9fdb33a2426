package catalog

import "errors"

var (
	ErrInvalidCatalog = errors.New("invalid catalog")
	ErrRemoteCatalog  = errors.New("remote catalog unavailable")
)
