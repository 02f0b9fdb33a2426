package asset

import "errors"

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrDecode        = errors.New("asset cannot be decoded")
	ErrOutsideRoot   = errors.New("path escapes the asset root")
)
