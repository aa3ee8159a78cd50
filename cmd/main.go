package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cs2hub/backend/brackets"
	"github.com/cs2hub/backend/config"
	"github.com/cs2hub/backend/db"
	"github.com/cs2hub/backend/handlers"
	"github.com/cs2hub/backend/live"
	"github.com/cs2hub/backend/middleware"
	"github.com/cs2hub/backend/repositories"
	api "github.com/cs2hub/backend/routes"
	"github.com/cs2hub/backend/serverquery"
	"github.com/cs2hub/backend/services"
	"github.com/cs2hub/backend/storage"
)

const migrationsPath = "migrations"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	if err := db.RunMigrations(dbConn, migrationsPath); err != nil {
		logger.Error("failed to apply database migrations", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database migrations applied")

	// Загрузчик логотипов опционален: без конфигурации R2 сервис
	// работает, но загрузка файлов отключена.
	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(context.Background(), storage.CloudflareR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage is not configured, file uploads are disabled")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)
	bracketRepo := repositories.NewPostgresBracketRepository(dbConn)
	serverRepo := repositories.NewPostgresServerRepository(dbConn)
	logger.Info("repositories initialized")

	bracketService := services.NewBracketService(
		dbConn,
		registrationRepo,
		bracketRepo,
		brackets.NewSingleEliminationGenerator(),
		wsHub,
		logger,
	)
	tournamentService := services.NewTournamentService(
		tournamentRepo,
		registrationRepo,
		bracketRepo,
		bracketService,
		uploader,
		logger,
	)
	serverService := services.NewServerService(serverRepo)
	statusService := services.NewServerStatusService(
		serverRepo,
		serverquery.NewClient(cfg.QueryTimeout),
		wsHub,
		logger,
		cfg.StatusPollLimit,
	)
	logger.Info("services initialized")

	// Планировщик автозапуска турниров.
	go func() {
		ticker := time.NewTicker(cfg.AutoStartInterval)
		defer ticker.Stop()
		logger.Info("tournament auto-start scheduler started",
			slog.Duration("interval", cfg.AutoStartInterval))

		if err := tournamentService.AutoStartDueTournaments(context.Background()); err != nil {
			logger.Error("tournament auto-start run failed", slog.Any("error", err))
		}
		for range ticker.C {
			if err := tournamentService.AutoStartDueTournaments(context.Background()); err != nil {
				logger.Error("tournament auto-start run failed", slog.Any("error", err))
			}
		}
	}()

	// Фоновый опрос игровых серверов.
	go func() {
		ticker := time.NewTicker(cfg.StatusPollInterval)
		defer ticker.Stop()
		logger.Info("server status poller started",
			slog.Duration("interval", cfg.StatusPollInterval))

		if _, err := statusService.RefreshAll(context.Background()); err != nil {
			logger.Error("server status poll failed", slog.Any("error", err))
		}
		for range ticker.C {
			if _, err := statusService.RefreshAll(context.Background()); err != nil {
				logger.Error("server status poll failed", slog.Any("error", err))
			}
		}
	}()

	auth := middleware.NewAuthenticator(cfg.JWTSecretKey, userRepo, logger)
	router := api.InitRoutes(api.Handlers{
		Tournaments:   handlers.NewTournamentHandler(tournamentService, logger),
		Registrations: handlers.NewRegistrationHandler(tournamentService, logger),
		Servers:       handlers.NewServerHandler(serverService, statusService, logger),
		WebSocket:     handlers.NewWebSocketHandler(wsHub, logger),
	}, auth)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shut down gracefully")
		}
	}
}
