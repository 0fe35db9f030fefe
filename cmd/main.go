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

	"github.com/arenaops/tournament-hub/config"
	"github.com/arenaops/tournament-hub/db"
	"github.com/arenaops/tournament-hub/handlers"
	"github.com/arenaops/tournament-hub/live"
	"github.com/arenaops/tournament-hub/repositories"
	"github.com/arenaops/tournament-hub/routes"
	"github.com/arenaops/tournament-hub/services"
	"github.com/arenaops/tournament-hub/storage"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("application failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.UploadsConfigured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			return fmt.Errorf("initialize R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Warn("R2 storage not configured, banner uploads disabled")
	}

	wsHub := live.NewHub(logger)
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	registrationRepo := repositories.NewPostgresRegistrationRepository(dbConn)

	transactor := services.NewSQLTransactor(dbConn)
	authService := services.NewAuthService(userRepo)
	tournamentService := services.NewTournamentService(
		transactor,
		tournamentRepo,
		registrationRepo,
		userRepo,
		uploader,
		wsHub,
		clockwork.NewRealClock(),
		logger,
	)
	registrationService := services.NewRegistrationService(
		transactor,
		registrationRepo,
		tournamentRepo,
		wsHub,
		logger,
	)
	logger.Info("services initialized")

	scheduler, err := services.StartStatusScheduler(tournamentService, logger)
	if err != nil {
		return fmt.Errorf("start status scheduler: %w", err)
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			logger.Error("failed to shut down scheduler", slog.Any("error", err))
		}
	}()

	router := routes.InitRoutes(routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService, []byte(cfg.JWTSecretKey)),
		Tournament:   handlers.NewTournamentHandler(tournamentService),
		Registration: handlers.NewRegistrationHandler(registrationService),
		WebSocket:    handlers.NewWebSocketHandler(wsHub, logger),
	}, []byte(cfg.JWTSecretKey))
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			_ = server.Close()
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server shutdown complete")
	return nil
}
