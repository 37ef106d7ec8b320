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

	"github.com/isdelr/smarttodo-be/internal/api"
	"github.com/isdelr/smarttodo-be/internal/auth"
	"github.com/isdelr/smarttodo-be/internal/config"
	"github.com/isdelr/smarttodo-be/internal/database"
	"github.com/isdelr/smarttodo-be/internal/logger"
	"github.com/isdelr/smarttodo-be/internal/mail"
	"github.com/isdelr/smarttodo-be/internal/monitoring"
	"github.com/isdelr/smarttodo-be/internal/services"
	"github.com/isdelr/smarttodo-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logger.Init(cfg.LogLevel, cfg.AppEnv)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	hub := websocket.NewHub()
	go hub.Run(hubCtx)

	// Set up services
	tokens := auth.NewTokenManager(cfg.JWTSecret)
	mailer := mail.New(cfg.SMTP)
	userService := services.NewUserService(db)
	eventService := services.NewEventService(db)
	categoryService := services.NewCategoryService(db)
	taskService := services.NewTaskService(db, categoryService, eventService, hub)
	authService := services.NewAuthService(userService, eventService, tokens, mailer, cfg.ResetURLBase)

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(15 * time.Second)
	go statUpdater.Run()

	// Set up and run the background scheduler
	retention := time.Duration(cfg.ActivityRetentionDays) * 24 * time.Hour
	scheduler := monitoring.NewScheduler(taskService, eventService, mailer, retention)
	if err := scheduler.Start(cfg.ReminderSchedule, cfg.ActivityPruneSchedule); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Set up router
	router := api.NewRouter(db, hub, tokens, statUpdater, api.Services{
		Auth:       authService,
		Tasks:      taskService,
		Categories: categoryService,
		Events:     eventService,
	}, cfg.AllowedOrigin)

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Str("env", cfg.AppEnv).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	statUpdater.Stop() // Stop the monitoring service
	scheduler.Stop()   // Stop the scheduler

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	stopHub()

	log.Info().Msg("Server exiting")
}
