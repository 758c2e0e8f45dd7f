package quiz

import (
	"fmt"
	"strings"
)

// Validate checks that questions form a usable quiz.
func Validate(questions []Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidQuiz)
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Prompt) == "" {
			return fmt.Errorf("%w: question %d has empty prompt", ErrInvalidQuiz, i)
		}
		if len(q.Options) != OptionCount {
			return fmt.Errorf("%w: question %d has %d options", ErrInvalidQuiz, i, len(q.Options))
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("%w: question %d option %d is empty", ErrInvalidQuiz, i, j)
			}
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= OptionCount {
			return fmt.Errorf("%w: question %d correct index %d out of range", ErrInvalidQuiz, i, q.CorrectIndex)
		}
	}
	return nil
}
