package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/sparkquest/arcade-api/internal/config"
	"github.com/sparkquest/arcade-api/internal/domain/arcade"
	"github.com/sparkquest/arcade-api/internal/domain/catalog"
	"github.com/sparkquest/arcade-api/internal/domain/completion"
	"github.com/sparkquest/arcade-api/internal/domain/credit"
	"github.com/sparkquest/arcade-api/internal/domain/quiz"
	"github.com/sparkquest/arcade-api/internal/domain/quizflow"
	"github.com/sparkquest/arcade-api/internal/domain/realtime"
	"github.com/sparkquest/arcade-api/internal/middleware"
	"github.com/sparkquest/arcade-api/internal/pkg/database"
	"github.com/sparkquest/arcade-api/internal/pkg/jwt"
	"github.com/sparkquest/arcade-api/internal/pkg/logger"
	"github.com/sparkquest/arcade-api/internal/pkg/metrics"
	"github.com/sparkquest/arcade-api/internal/pkg/quizgen"
	pkgresponse "github.com/sparkquest/arcade-api/internal/pkg/response"
	"github.com/sparkquest/arcade-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		Service:     "arcade-api",
	})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting SparkQuest arcade API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	artworkStore, err := storage.New(storage.Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		PublicURL: cfg.S3PublicURL,
		LocalPath: cfg.LocalStoragePath,
		LocalURL:  cfg.LocalStorageURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create artwork storage")
	}

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- WebSocket hub ----------
	hub := realtime.NewHub(redis)
	go hub.Run()
	defer hub.Shutdown()
	notifier := realtime.NewNotifier(hub)

	// ---------- Repositories ----------
	creditRepo := credit.NewRepository(db)
	completionRepo := completion.NewRepository(db)
	quizRepo := quiz.NewRepository(db)
	catalogRepo := catalog.NewRepository(db)
	arcadeRepo := arcade.NewRepository(db)

	// ---------- Catalog ----------
	catalogReader := catalog.NewReader(catalogRepo, redis)
	catalogReader.SetIntervals(cfg.CatalogResyncInterval, cfg.CatalogRetryInterval)
	catalogReader.OnChange(notifier.CatalogChanged)
	catalogReader.Start(context.Background())
	defer catalogReader.Stop()

	changePublisher := catalog.NewChangePublisher(redis, catalogReader)
	catalogAdmin := catalog.NewAdminService(catalogRepo, catalog.NewArtworkQueue(db), artworkStore, changePublisher)

	// ---------- Services ----------
	creditService := credit.NewService(creditRepo, notifier)
	tracker := completion.NewTracker(db, completionRepo, creditService, notifier)

	generator := &quizGenerator{
		client: quizgen.NewClient(quizgen.Config{
			BaseURL:    cfg.QuizGenBaseURL,
			APIKey:     cfg.QuizGenAPIKey,
			Model:      cfg.QuizGenModel,
			Timeout:    cfg.QuizGenTimeout,
			MaxRetries: cfg.QuizGenMaxRetries,
		}),
		count: cfg.QuizGenQuestionCount,
	}
	quizService := quiz.NewService(quizRepo, quiz.NewCache(redis), generator, cfg.QuizGenTimeout)

	flowService := quizflow.NewService(
		quizflow.NewStore(redis, cfg.QuizSessionTTL),
		catalogReader,
		quizService,
		tracker,
		quizflow.Rules{
			VideoCompleteThreshold: cfg.VideoCompleteThreshold,
			PassThreshold:          cfg.QuizPassThreshold,
			FeedbackDelay:          cfg.QuizFeedbackDelay,
		},
	)

	arcadeService := arcade.NewService(db, arcadeRepo, catalogReader, creditService, notifier, cfg.ArcadeDurations)
	reaper := arcade.NewReaper(arcadeService, cfg.ArcadeReaperInterval)
	reaper.Start()
	defer reaper.Stop()

	// ---------- Router ----------
	r := newRouter(cfg, routes{
		auth:         middleware.Auth(jwtService),
		credits:      credit.NewHandler(creditService),
		completions:  completion.NewHandler(tracker),
		catalog:      catalog.NewHandler(catalogReader),
		catalogAdmin: catalog.NewAdminHandler(catalogAdmin),
		quizFlow:     quizflow.NewHandler(flowService),
		arcade:       arcade.NewHandler(arcadeService),
		realtime:     realtime.NewHandler(hub, creditService, redis, cfg.AllowedOrigins),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

type routes struct {
	auth         func(http.Handler) http.Handler
	credits      *credit.Handler
	completions  *completion.Handler
	catalog      *catalog.Handler
	catalogAdmin *catalog.AdminHandler
	quizFlow     *quizflow.Handler
	arcade       *arcade.Handler
	realtime     *realtime.Handler
}

func newRouter(cfg *config.Config, h routes) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint; the auth middleware also accepts ?token=
	r.With(h.auth).Get("/ws", h.realtime.WebSocket)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	if cfg.MetricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	if cfg.S3Bucket == "" && cfg.LocalStoragePath != "" {
		r.Handle("/artwork/*", http.StripPrefix("/artwork/", http.FileServer(http.Dir(cfg.LocalStoragePath))))
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
				pkgresponse.OK(w, map[string]string{"message": "pong"})
			})

			r.Mount("/credits", h.credits.Routes(h.auth))
			r.Mount("/completions", h.completions.Routes(h.auth))
			r.Mount("/catalog", h.catalog.Routes())
			r.Mount("/quiz-sessions", h.quizFlow.Routes(h.auth))
			r.Mount("/arcade", h.arcade.Routes(h.auth))
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Mount("/credits", h.credits.AdminRoutes(h.auth))
			r.Mount("/catalog", h.catalogAdmin.Routes(h.auth))
		})
	})

	return r
}

// quizGenerator adapts the quizgen client to quiz.Generator.
type quizGenerator struct {
	client *quizgen.Client
	count  int
}

func (g *quizGenerator) Generate(ctx context.Context, title, description string) ([]quiz.Question, error) {
	drafted, err := g.client.Generate(ctx, title, description, g.count)
	if err != nil {
		return nil, err
	}
	questions := make([]quiz.Question, len(drafted))
	for i, q := range drafted {
		questions[i] = quiz.Question{
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
		}
	}
	return questions, nil
}
