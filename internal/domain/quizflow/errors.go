package quizflow

import "errors"

var (
	ErrSessionNotFound    = errors.New("quiz session not found")
	ErrContentNotFound    = errors.New("content item not found")
	ErrInvalidTransition  = errors.New("action not allowed in current state")
	ErrInvalidProgress    = errors.New("invalid playback progress")
	ErrVideoNotComplete   = errors.New("video not watched far enough")
	ErrQuizNotLoaded      = errors.New("quiz not loaded")
	ErrAnswerLocked       = errors.New("question already answered")
	ErrInvalidAnswer      = errors.New("invalid answer")
	ErrNotClaimable       = errors.New("reward cannot be claimed")
	ErrBackendUnavailable = errors.New("quiz session store unavailable")
)
