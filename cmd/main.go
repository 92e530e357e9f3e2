package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vkarpenko/ops_awareness_system/internal/config"
	"github.com/vkarpenko/ops_awareness_system/internal/escalation"
	v1 "github.com/vkarpenko/ops_awareness_system/internal/handler/http/v1"
	"github.com/vkarpenko/ops_awareness_system/internal/identity"
	"github.com/vkarpenko/ops_awareness_system/internal/location"
	"github.com/vkarpenko/ops_awareness_system/internal/notifier"
	"github.com/vkarpenko/ops_awareness_system/internal/repository"
	"github.com/vkarpenko/ops_awareness_system/internal/service"
	"github.com/vkarpenko/ops_awareness_system/internal/webhook"
	"github.com/vkarpenko/ops_awareness_system/pkg/logger"
	"github.com/vkarpenko/ops_awareness_system/pkg/metrics"
	"github.com/vkarpenko/ops_awareness_system/pkg/postgres"
	redisclient "github.com/vkarpenko/ops_awareness_system/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/vkarpenko/ops_awareness_system/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title Ops Awareness System API
// @version 1.0
// @description Security-operations situational awareness and emergency escalation backend.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := logger.New(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	publisher := webhook.NewRedisPublisher(redisClient)

	webhookWorker := webhook.NewWorker(redisClient, log, cfg)
	webhookWorker.Start(ctx)

	repo := repository.NewDashboardRepository(dbpool, redisClient, cfg.SnapshotTTL)

	dashboard := service.NewDashboardService(repo, log, cfg, publisher)
	dashboard.Start(ctx)
	defer dashboard.Stop()

	opsNotifier, err := notifier.NewEmailNotifier(notifier.EmailConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, log)
	if err != nil {
		log.Fatalf("Failed to configure ops notifier: %v", err)
	}

	var identityProvider escalation.IdentityProvider
	if cfg.SessionURL != "" {
		identityProvider = identity.NewHTTPProvider(cfg.SessionURL, firstKey(cfg.APIKeys), cfg.DispatchTimeout)
	} else {
		identityProvider = &identity.StaticProvider{Operator: escalation.Identity{
			FullName: cfg.OperatorName,
			Email:    cfg.OperatorEmail,
		}}
	}

	pipeline := escalation.NewPipeline(escalation.Config{
		HoldDuration:    cfg.HoldDuration,
		GeoTimeout:      cfg.GeoTimeout,
		DispatchTimeout: cfg.DispatchTimeout,
		Cooldown:        cfg.EscalationCooldown,
		OpsEmail:        cfg.OpsEmail,
	}, identityProvider, dashboard, opsNotifier, location.NewHTTPResolver(cfg.GeoEndpoint), log)
	defer pipeline.Stop()

	pipeline.AddHandler(func(outcome escalation.Outcome) {
		metrics.EscalationOutcomes.WithLabelValues(string(outcome.State)).Inc()
		event := webhook.Event{
			Type:      "escalation",
			Timestamp: outcome.CompletedAt,
			Outcome:   string(outcome.State),
			Operator:  outcome.Operator,
		}
		if outcome.IncidentID != uuid.Nil {
			event.IncidentID = outcome.IncidentID.String()
		}
		if err := publisher.Publish(ctx, event); err != nil {
			log.WithError(err).Warn("Failed to publish escalation event")
		}
	})

	handler := v1.NewHandler(dashboard, pipeline, log, cfg)

	router := gin.Default()
	api := router.Group("/api/v1")
	if len(cfg.APIKeys) > 0 {
		api.Use(v1.APIKeyAuthMiddleware(cfg, log))
	}
	handler.RegisterRoutes(api)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}

func firstKey(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return keys[0]
}
