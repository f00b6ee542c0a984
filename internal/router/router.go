package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/learnnav/learning-navigator/internal/config"
	"github.com/learnnav/learning-navigator/internal/handler"
	"github.com/learnnav/learning-navigator/internal/logger"
	"github.com/learnnav/learning-navigator/internal/middleware"
	"github.com/learnnav/learning-navigator/internal/response"
	"github.com/rs/zerolog"
)

// easterEggMaxAge is how long clients may cache a number fact.
const easterEggMaxAge = 3600

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Student *handler.StudentHandler
	Subject *handler.SubjectHandler
	Exam    *handler.ExamHandler
	Number  *handler.NumberHandler
	Health  *handler.HealthHandler
}

// SetupRouter configures the Gin engine with every route and global middleware.
// The returned limiter, if any, must be stopped on shutdown.
func SetupRouter(handlers *Handlers, cfg *config.Config, log zerolog.Logger) (*gin.Engine, *middleware.RateLimiter) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(
		response.RequestIDMiddleware(),
		logger.AccessLog(log),
		gin.Recovery(),
		middleware.Metrics(),
		middleware.Brotli(),
	)

	router.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	})

	router.GET("/health", handlers.Health.Health)
	router.GET("/metrics", middleware.MetricsHandler())

	// ─── Students ──────────────────────────────────────────────────────
	students := router.Group("/students")
	{
		students.POST("", handlers.Student.Create)
		students.GET("", handlers.Student.GetAll)
		students.GET("/:id", handlers.Student.GetByID)
		students.POST("/:id/subjects/:subjectId", handlers.Student.EnrollInSubject)
		students.POST("/:id/exams/:examId", handlers.Student.EnrollInExam)
	}

	// ─── Subjects ──────────────────────────────────────────────────────
	subjects := router.Group("/subjects")
	{
		subjects.POST("", handlers.Subject.Create)
		subjects.GET("", handlers.Subject.GetAll)
		subjects.GET("/:id", handlers.Subject.GetByID)
		subjects.DELETE("/:id", handlers.Subject.Delete)
		subjects.GET("/:id/exams", handlers.Subject.ListExams)
		subjects.GET("/:id/students", handlers.Subject.ListStudents)
	}

	// ─── Exams ─────────────────────────────────────────────────────────
	exams := router.Group("/exams")
	{
		exams.POST("/subjects/:subjectId", handlers.Exam.Create)
		exams.GET("", handlers.Exam.GetAll)
		exams.GET("/:id", handlers.Exam.GetByID)
		exams.DELETE("/:id", handlers.Exam.Delete)
		exams.POST("/:id", handlers.Exam.RegisterStudent)
		exams.GET("/:id/students", handlers.Exam.ListStudents)
	}

	// ─── Easter egg (calls a public API, so rate limited and cacheable) ─
	var limiter *middleware.RateLimiter
	easterEgg := router.Group("/easter-egg")
	if cfg.EasterEggRatePerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.EasterEggRatePerMinute, time.Minute)
		easterEgg.Use(limiter.Middleware())
	}
	easterEgg.Use(middleware.CacheControl(easterEggMaxAge))
	{
		easterEgg.GET("/hidden-feature/:number", handlers.Number.HiddenFeature)
	}

	return router, limiter
}
