package completion

import "errors"

var (
	ErrInvalidReward      = errors.New("reward credits must be positive")
	ErrBackendUnavailable = errors.New("completion backend unavailable")
)
