package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/config"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/database"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/handlers"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/ingestor"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/logger"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/repositories"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/services"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/signaling"
	"github.com/Team-10-COEN-ELEC-390-Summer-2025/RealMail/internal/utils"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

func main() {
	godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("Server exited with error")
	}
	log.Info().Msg("Server stopped gracefully")
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database connections
	postgresPool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("failed to create postgres pool: %w", err)
	}
	defer postgresPool.Close()

	if err := database.EnsureSchema(ctx, postgresPool); err != nil {
		return err
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer redisClient.Close()

	// Repositories
	heartbeatRepo := repositories.NewPostgresHeartbeatRepository(postgresPool)
	sensorRepo := repositories.NewPostgresSensorRepository(postgresPool)
	deviceRepo := repositories.NewPostgresDeviceRepository(postgresPool)
	tokenRepo := repositories.NewPostgresTokenRepository(postgresPool)
	statusRepo := repositories.NewRedisStatusRepository(redisClient)
	locker := repositories.NewRedisLocker(redisClient, log)

	// Firebase is optional for push and required for firebase auth.
	var app *firebase.App
	if cfg.FirebaseCredentialsFile != "" {
		app, err = services.NewFirebaseApp(ctx, cfg.FirebaseCredentialsFile)
		if err != nil {
			return err
		}
	}

	var sender services.PushSender = services.NewLogSender(log)
	if app != nil {
		fcm, err := services.NewFCMSender(ctx, app, log)
		if err != nil {
			return err
		}
		sender = fcm
	} else {
		log.Warn().Msg("FIREBASE_CREDENTIALS_FILE not set, push notifications will only be logged")
	}

	var provider services.IdentityProvider
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		provider = services.NewJWTVerifier(cfg.JWTSecret)
	case config.AuthModeFirebase:
		verifier, err := services.NewFirebaseVerifier(ctx, app)
		if err != nil {
			return err
		}
		provider = verifier
	}

	// Services
	pool := utils.NewWorkerPool(cfg.NotifyWorkers, cfg.NotifyQueueSize, log)
	notifier := services.NewNotificationService(tokenRepo, sender, pool, cfg.NotifyTimeout, log)
	ingestService := services.NewIngestService(sensorRepo, heartbeatRepo, tokenRepo, notifier, log)
	deviceService := services.NewDeviceService(deviceRepo, sensorRepo, heartbeatRepo, log)
	streamService := services.NewStreamService(heartbeatRepo, cfg.StreamDevicePort, cfg.StreamTimeout, log)
	authService := services.NewAuthService(provider, tokenRepo)

	classifier := services.NewClassifier(heartbeatRepo, log)
	monitor := services.NewMonitorService(classifier, statusRepo, locker, notifier, cfg.MonitorLockTTL, log)
	location, err := time.LoadLocation(cfg.MonitorTimezone)
	if err != nil {
		return fmt.Errorf("failed to load monitor timezone: %w", err)
	}
	if err := monitor.Start(cfg.MonitorSchedule, location); err != nil {
		return err
	}

	hub := signaling.NewHub(signaling.NewRegistry(), log)

	var mqttIngestor *ingestor.Ingestor
	if cfg.MQTTBrokerURL != "" {
		mqttIngestor = ingestor.New(ingestor.Config{
			BrokerURL:   cfg.MQTTBrokerURL,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
		}, ingestService, log)
		if err := mqttIngestor.Start(); err != nil {
			return err
		}
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Handler: handlers.NewHandler(ingestService, deviceService, streamService, authService),
		Hub:     hub,
		HealthChecks: map[string]handlers.HealthCheck{
			"postgres": postgresPool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
		Logger: log,
	})

	// Start Server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.ServerPort).Msg("Starting server")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)

		monitor.Stop()
		if mqttIngestor != nil {
			mqttIngestor.Stop()
		}
		pool.Shutdown()
		return err
	})

	return g.Wait()
}
