package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nexconsult/cnpj-enricher/internal/api"
	"github.com/nexconsult/cnpj-enricher/internal/config"
	"github.com/nexconsult/cnpj-enricher/internal/logger"
	"github.com/nexconsult/cnpj-enricher/internal/services"
	"github.com/nexconsult/cnpj-enricher/internal/worker"
	"github.com/sirupsen/logrus"

	// Import docs for Swagger
	_ "github.com/nexconsult/cnpj-enricher/docs"
)

// @title CNPJ Enricher API
// @version 1.0
// @description Validates CNPJs and enriches them with BrasilAPI company data

// @contact.name API Support
// @contact.email support@nexconsult.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.New(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting CNPJ Enricher API Server...")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	serviceContainer, err := services.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize services: %v", err)
	}
	defer serviceContainer.Close()

	serviceContainer.JobStore.StartCleanupRoutine(ctx, time.Minute)

	runner := worker.NewRunner(
		serviceContainer.Pipeline,
		serviceContainer.JobStore,
		cfg.Jobs.QueueSize,
		cfg.Jobs.MaxLogLines,
		logger,
	)
	runner.Start()

	server := api.NewServer(ctx, cfg, logger, serviceContainer, runner)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":        cfg.Server.Port,
			"environment": cfg.Server.Environment,
		}).Info("Server starting...")

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	// running and queued jobs are cancelled and keep their partial results
	runner.Stop()
	stop()

	logger.Info("Server exited")
}
