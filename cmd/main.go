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

	"github.com/Extrase/ft-Transcendance/config"
	"github.com/Extrase/ft-Transcendance/db"
	"github.com/Extrase/ft-Transcendance/handlers"
	"github.com/Extrase/ft-Transcendance/realtime"
	"github.com/Extrase/ft-Transcendance/repositories"
	api "github.com/Extrase/ft-Transcendance/routes"
	"github.com/Extrase/ft-Transcendance/services"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	participantRepo := repositories.NewPostgresParticipantRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	statsRepo := repositories.NewPostgresStatsRepository(dbConn)
	historyRepo := repositories.NewPostgresHistoryRepository(dbConn)
	achievementRepo := repositories.NewPostgresAchievementRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	messageRepo := repositories.NewPostgresMessageRepository(dbConn)
	inviteRepo := repositories.NewPostgresInviteRepository(dbConn)
	logger.Info("repositories initialized")

	// Realtime-шина: по логическому каналу на пользователя
	wsHub := realtime.NewHub(realtime.HubDeps{
		Messages: messageRepo,
		Invites:  inviteRepo,
		Users:    userRepo,
		Logger:   logger,
	})
	go wsHub.Run()
	logger.Info("realtime hub started")

	// Инициализация сервисов
	notificationService := services.NewNotificationService(notificationRepo, wsHub)
	tournamentService := services.NewTournamentService(
		dbConn,
		tournamentRepo,
		participantRepo,
		matchRepo,
		userRepo,
		notificationService,
		logger,
	)
	statsService := services.NewStatsService(
		dbConn,
		statsRepo,
		historyRepo,
		achievementRepo,
		userRepo,
		logger,
	)
	matchService := services.NewMatchService(
		matchRepo,
		tournamentRepo,
		participantRepo,
		userRepo,
		statsService,
		tournamentService,
		logger,
	)
	logger.Info("services initialized")

	// Фоновая уборка протухших приглашений
	inviteSweeper := services.NewInviteSweeper(inviteRepo, logger)
	if err := inviteSweeper.Start(); err != nil {
		logger.Error("failed to start invite sweeper", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := inviteSweeper.Stop(); err != nil {
			logger.Error("failed to stop invite sweeper", slog.Any("error", err))
		}
	}()

	// Инициализация обработчиков HTTP
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	matchHandler := handlers.NewMatchHandler(matchService)
	statsHandler := handlers.NewStatsHandler(statsService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	chatHandler := handlers.NewChatHandler(messageRepo)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, userRepo, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		tournamentHandler,
		matchHandler,
		statsHandler,
		notificationHandler,
		chatHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
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

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
