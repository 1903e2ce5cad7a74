package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isdelr/llm-admin-be/internal/api"
	"github.com/isdelr/llm-admin-be/internal/config"
	"github.com/isdelr/llm-admin-be/internal/database"
	"github.com/isdelr/llm-admin-be/internal/logger"
	"github.com/isdelr/llm-admin-be/internal/maintenance"
	"github.com/isdelr/llm-admin-be/internal/provider"
	"github.com/isdelr/llm-admin-be/internal/services"
	"github.com/isdelr/llm-admin-be/internal/websocket"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, cfg.LogPretty)

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub()
	go hub.Run()

	if len(cfg.Providers) == 0 {
		log.Warn().Msg("No LLM providers configured; prompt dispatch will fail for every model")
	}
	for key := range cfg.Providers {
		log.Info().Str("provider", key).Msg("Provider endpoint configured")
	}

	// Set up services
	userService := services.NewUserService(db, hub)
	llmService := services.NewLLMService(db, hub)
	completer := provider.NewClient(cfg.ProviderTimeout)
	promptService := services.NewPromptService(db, llmService, cfg.Providers, completer, hub)
	historyService := services.NewPromptHistoryService(db)
	evaluationService := services.NewEvaluationService(llmService, cfg.Providers, completer, historyService, hub)

	// Set up and run the retention job
	retention, err := maintenance.NewRetention(promptService, cfg.PromptRetentionDays, cfg.RetentionCron)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure prompt retention")
	}
	retention.Start()

	// Set up router
	router := api.NewRouter(db, hub, api.Services{
		Users:         userService,
		LLMs:          llmService,
		Prompts:       promptService,
		PromptHistory: historyService,
		Evaluations:   evaluationService,
	}, api.Options{
		AllowedOrigins:  cfg.AllowedOrigins,
		PromptRateLimit: cfg.PromptRateLimit,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	retention.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Stop()

	log.Info().Msg("Server exiting")
}
