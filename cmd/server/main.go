// @title Taskboard API
// @version 1.0
// @description Collaborative kanban boards with ordered columns and tasks and an audit trail
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.email support@example.com
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"taskboard-be/config"
	"taskboard-be/internal/bootstrap"
	"taskboard-be/internal/handlers"
	"taskboard-be/internal/metrics"
	"taskboard-be/internal/middleware"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	_ "taskboard-be/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	// Load configuration
	cfg := config.Load()
	bootstrap.ConfigureLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Open(ctx, cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to start")
	}
	defer app.Close()

	metrics.Register()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log.StandardLogger()))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg))

	// Public routes
	public := r.Group("/api")
	{
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":   "ok",
				"message":  "Taskboard API is running",
				"database": "MongoDB connected",
			})
		})
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	protected.Use(middleware.AuthMiddleware(cfg, app.Services.Identity))
	handlers.RegisterRoutes(protected, app.Services)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{"port": cfg.Port, "database": cfg.MongoDBDatabase}).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
