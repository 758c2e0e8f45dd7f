package quiz

import "errors"

var (
	// ErrQuizUnavailable is returned when no valid quiz can be produced.
	ErrQuizUnavailable = errors.New("quiz unavailable")

	// ErrInvalidQuiz is returned by Validate for structurally invalid question sets.
	ErrInvalidQuiz = errors.New("invalid quiz")

	ErrBackendUnavailable = errors.New("quiz backend unavailable")
)
