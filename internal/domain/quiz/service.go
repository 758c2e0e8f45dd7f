package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sparkquest/arcade-api/internal/pkg/logger"
	"github.com/sparkquest/arcade-api/internal/pkg/metrics"
)

const defaultGenerateTimeout = 30 * time.Second

// Generator drafts questions for a video. Output is validated by the service.
type Generator interface {
	Generate(ctx context.Context, title, description string) ([]Question, error)
}

// Service resolves the quiz for a content item, generating it at most once.
type Service struct {
	repo            Repository
	cache           Cache
	generator       Generator
	generateTimeout time.Duration
	flights         singleflight.Group
}

func NewService(repo Repository, cache Cache, generator Generator, generateTimeout time.Duration) *Service {
	if cache == nil {
		cache = noopCache{}
	}
	if generateTimeout <= 0 {
		generateTimeout = defaultGenerateTimeout
	}
	return &Service{
		repo:            repo,
		cache:           cache,
		generator:       generator,
		generateTimeout: generateTimeout,
	}
}

// GetQuiz returns the authored quiz when one is valid, else the stored quiz,
// else a freshly generated one. Every failure is reported as ErrQuizUnavailable.
func (s *Service) GetQuiz(ctx context.Context, src Source) (*Quiz, error) {
	if len(src.Authored) > 0 {
		err := Validate(src.Authored)
		if err == nil {
			metrics.QuizCacheLookups.WithLabelValues("authored").Inc()
			return &Quiz{
				ContentItemID: src.ContentItemID,
				Questions:     src.Authored,
				Source:        SourceAuthored,
			}, nil
		}
		logger.LogWarn(ctx, "authored quiz invalid, falling back to generation",
			"content_item_id", src.ContentItemID.String(),
			"reason", err.Error(),
		)
	}

	if q, err := s.cache.Get(ctx, src.ContentItemID); err != nil {
		logger.LogWarn(ctx, "quiz cache read failed", "content_item_id", src.ContentItemID.String(), "error", err.Error())
	} else if q != nil && Validate(q.Questions) == nil {
		metrics.QuizCacheLookups.WithLabelValues("redis").Inc()
		return q, nil
	}

	stored, err := s.repo.Get(ctx, src.ContentItemID)
	if err != nil && !errors.Is(err, ErrInvalidQuiz) {
		return nil, fmt.Errorf("%w: %w", ErrQuizUnavailable, err)
	}
	if stored != nil && Validate(stored.Questions) == nil {
		metrics.QuizCacheLookups.WithLabelValues("store").Inc()
		s.warm(ctx, stored)
		return stored, nil
	}

	metrics.QuizCacheLookups.WithLabelValues("miss").Inc()
	return s.generate(ctx, src)
}

// generate runs at most one generation per content item at a time; other callers
// wait for the same result or give up when their own context ends.
func (s *Service) generate(ctx context.Context, src Source) (*Quiz, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("%w: no generator configured", ErrQuizUnavailable)
	}

	ch := s.flights.DoChan(src.ContentItemID.String(), func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.generateTimeout)
		defer cancel()
		return s.generateOnce(genCtx, src)
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrQuizUnavailable, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Quiz), nil
	}
}

func (s *Service) generateOnce(ctx context.Context, src Source) (*Quiz, error) {
	start := time.Now()
	questions, err := s.generator.Generate(ctx, src.Title, src.Description)
	if err != nil {
		result := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			result = "timeout"
		}
		metrics.QuizGenerations.WithLabelValues(result).Inc()
		logger.LogError(ctx, err, "quiz generation failed", "content_item_id", src.ContentItemID.String())
		return nil, fmt.Errorf("%w: %w", ErrQuizUnavailable, err)
	}

	if err := Validate(questions); err != nil {
		metrics.QuizGenerations.WithLabelValues("invalid").Inc()
		logger.LogWarn(ctx, "generated quiz rejected",
			"content_item_id", src.ContentItemID.String(),
			"reason", err.Error(),
		)
		return nil, fmt.Errorf("%w: %w", ErrQuizUnavailable, err)
	}

	fresh := &Quiz{
		ContentItemID: src.ContentItemID,
		Questions:     questions,
		Source:        SourceGenerated,
	}
	stored, err := s.repo.Insert(ctx, fresh)
	if err == nil && Validate(stored.Questions) != nil || errors.Is(err, ErrInvalidQuiz) {
		// A broken row already holds the slot; overwrite it with the validated quiz.
		logger.LogWarn(ctx, "replacing invalid stored quiz", "content_item_id", src.ContentItemID.String())
		stored, err = s.repo.Replace(ctx, fresh)
	}
	if err != nil {
		metrics.QuizGenerations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrQuizUnavailable, err)
	}
	if err := Validate(stored.Questions); err != nil {
		metrics.QuizGenerations.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %w", ErrQuizUnavailable, err)
	}

	metrics.QuizGenerations.WithLabelValues("ok").Inc()
	logger.LogInfo(ctx, "quiz generated",
		"content_item_id", src.ContentItemID.String(),
		"questions", len(stored.Questions),
		"duration", time.Since(start).String(),
	)

	s.warm(ctx, stored)
	return stored, nil
}

func (s *Service) warm(ctx context.Context, q *Quiz) {
	if err := s.cache.Set(ctx, q); err != nil {
		logger.LogWarn(ctx, "quiz cache write failed", "content_item_id", q.ContentItemID.String(), "error", err.Error())
	}
}
