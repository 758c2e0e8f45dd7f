package arcade

import "errors"

var (
	ErrInvalidDuration    = errors.New("duration not offered")
	ErrGameNotFound       = errors.New("game not found")
	ErrSessionNotFound    = errors.New("arcade session not found")
	ErrSessionNotActive   = errors.New("arcade session is not active")
	ErrBackendUnavailable = errors.New("arcade store unavailable")
)
