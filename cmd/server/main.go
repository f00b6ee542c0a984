package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/learnnav/learning-navigator/internal/config"
	"github.com/learnnav/learning-navigator/internal/database"
	"github.com/learnnav/learning-navigator/internal/event"
	"github.com/learnnav/learning-navigator/internal/handler"
	"github.com/learnnav/learning-navigator/internal/logger"
	"github.com/learnnav/learning-navigator/internal/repository"
	"github.com/learnnav/learning-navigator/internal/router"
	"github.com/learnnav/learning-navigator/internal/service"
	"github.com/learnnav/learning-navigator/internal/validator"
	"github.com/learnnav/learning-navigator/internal/worker"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("storage", cfg.StorageDriver).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Learning Navigator")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect Storage ───────────────────────────────────────────────
	store, err := database.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	checks := map[string]handler.HealthCheck{}
	if store.Ping != nil {
		checks["postgres"] = store.Ping
	}

	// ─── Connect Redis (optional) ──────────────────────────────────────
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		log.Warn().Msg("REDIS_URL not set, fact cache disabled and events published inline")
	}

	// ─── Event Publisher ───────────────────────────────────────────────
	var publisher event.Publisher
	if cfg.AMQPURL != "" {
		amqpPublisher, err := event.NewAMQPPublisher(cfg.AMQPURL, cfg.EventsExchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		publisher = amqpPublisher
	} else {
		log.Warn().Msg("AMQP_URL not set, enrollment events are only logged")
		publisher = event.NewLogPublisher(log)
	}
	defer publisher.Close()

	// Interfaces stay untyped nil when a backend is disabled.
	var (
		events    service.EventQueue
		factCache service.FactCache
	)
	if rdb != nil {
		events = worker.NewRedisEventQueue(rdb)
		if cfg.NumberFactTTL > 0 {
			factCache = repository.NewNumberFactCache(rdb, cfg.NumberFactTTL)
		}
	} else {
		events = worker.NewInlineQueue(publisher)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	enrollmentService := service.NewEnrollmentService(store.Tx, store.Students, store.Subjects, store.Exams, store.Enrollments, events, log)
	studentService := service.NewStudentService(store.Students, store.Subjects, store.Exams, enrollmentService)
	subjectService := service.NewSubjectService(store.Tx, store.Subjects, store.Exams, store.Enrollments, log)
	examService := service.NewExamService(store.Tx, store.Exams, store.Subjects, store.Enrollments, enrollmentService, log)
	numberService := service.NewNumberService(cfg.NumbersAPIURL, cfg.NumbersAPITimeout, factCache, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Student: handler.NewStudentHandler(studentService),
		Subject: handler.NewSubjectHandler(subjectService),
		Exam:    handler.NewExamHandler(examService),
		Number:  handler.NewNumberHandler(numberService),
		Health:  handler.NewHealthHandler(checks, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup
	if rdb != nil {
		eventWorker := worker.NewEnrollmentEventWorker(rdb, publisher, log)
		workers.Add(1)
		go func() {
			defer workers.Done()
			eventWorker.Start(workerCtx)
		}()
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r, limiter := router.SetupRouter(handlers, cfg, log)
	if limiter != nil {
		defer limiter.Stop()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the event worker and wait for it to drain the queue.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
