package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/cnpj-enricher/internal/api/handlers"
	"github.com/nexconsult/cnpj-enricher/internal/api/middleware"
	"github.com/nexconsult/cnpj-enricher/internal/config"
	"github.com/nexconsult/cnpj-enricher/internal/services"
	"github.com/nexconsult/cnpj-enricher/internal/worker"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Server represents the HTTP server
type Server struct {
	Router   *gin.Engine
	config   *config.Config
	logger   *logrus.Logger
	services *services.Container
	runner   *worker.Runner
}

// NewServer creates a new HTTP server. ctx bounds background middleware
// goroutines.
func NewServer(ctx context.Context, cfg *config.Config, logger *logrus.Logger, services *services.Container, runner *worker.Runner) *Server {
	server := &Server{
		config:   cfg,
		logger:   logger,
		services: services,
		runner:   runner,
	}

	server.setupRouter(ctx)
	return server
}

// setupRouter configures the router with all routes and middleware
func (s *Server) setupRouter(ctx context.Context) {
	s.Router = gin.New()

	s.Router.Use(middleware.RequestID())
	s.Router.Use(middleware.Logger(s.logger))
	s.Router.Use(middleware.Recovery(s.logger))
	s.Router.Use(middleware.CORS(s.config.Security.CORS))
	s.Router.Use(middleware.Security())

	healthHandler := handlers.NewHealthHandler(s.services, s.logger)
	s.Router.GET("/health", healthHandler.GetHealth)
	s.Router.GET("/health/ready", healthHandler.GetReadiness)
	s.Router.GET("/health/live", healthHandler.GetLiveness)

	metricsHandler := handlers.NewMetricsHandler(s.runner, s.services.LookupClient, s.logger)
	s.Router.GET("/metrics", metricsHandler.GetMetrics)

	if s.config.Server.Environment != "production" {
		s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		s.Router.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
		})
	}

	rateLimiter := middleware.NewRateLimiter(ctx, s.config.Security.RateLimit)

	v1 := s.Router.Group("/api/v1")
	v1.Use(rateLimiter.Middleware())
	{
		cnpjHandler := handlers.NewCNPJHandler(s.logger)
		cnpj := v1.Group("/cnpj")
		{
			cnpj.GET("/:cnpj/validate", cnpjHandler.Validate)
			cnpj.POST("/validate", cnpjHandler.ValidateBatch)
		}

		jobsHandler := handlers.NewJobsHandler(s.runner, s.services.JobStore, s.logger)
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", middleware.BodyLimit(s.config.Jobs.MaxUploadBytes), jobsHandler.Create)
			jobs.GET("/:id", jobsHandler.Get)
			jobs.POST("/:id/cancel", jobsHandler.Cancel)
			jobs.GET("/:id/results/ok", jobsHandler.ResultsOK)
			jobs.GET("/:id/results/errors", jobsHandler.ResultsErrors)
		}
	}

	s.Router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":     "Not Found",
			"message":   "The requested resource was not found",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
		})
	})

	s.Router.HandleMethodNotAllowed = true
	s.Router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"error":     "Method Not Allowed",
			"message":   "The requested method is not allowed for this resource",
			"timestamp": time.Now(),
			"path":      c.Request.URL.Path,
			"method":    c.Request.Method,
		})
	})
}
