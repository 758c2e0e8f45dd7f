package catalog

import "errors"

var (
	ErrNotFound           = errors.New("catalog entry not found")
	ErrInvalidCollection  = errors.New("invalid catalog collection")
	ErrBackendUnavailable = errors.New("catalog backend unavailable")
)
