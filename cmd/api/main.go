package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Batatao343/rpg-ia-master/internal/config"
	"github.com/Batatao343/rpg-ia-master/internal/handlers"
	"github.com/Batatao343/rpg-ia-master/internal/logger"
	"github.com/Batatao343/rpg-ia-master/internal/middleware"
	"github.com/Batatao343/rpg-ia-master/internal/services"
	"github.com/Batatao343/rpg-ia-master/internal/storage"
	"github.com/Batatao343/rpg-ia-master/internal/worker"
	"github.com/Batatao343/rpg-ia-master/pkg/dice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting RPG IA Master API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	var llmService services.LLMService
	switch cfg.LLMProvider {
	case config.ProviderAnthropic:
		llmService = services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, cfg.BackendModelName, log)
		log.Info("Using Anthropic LLM provider")
	case config.ProviderOllama:
		llmService = services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, log)
		log.Info("Using Ollama LLM provider", "url", cfg.OllamaURL)
	default:
		log.Error("Invalid LLM provider specified", "provider", cfg.LLMProvider,
			"supported", []string{config.ProviderAnthropic, config.ProviderOllama})
		os.Exit(1)
	}

	store := storage.NewRedisStorage(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	if err := store.SeedCatalog(storageCtx); err != nil {
		log.Error("Failed to seed item catalog", "error", err)
		os.Exit(1)
	}

	processor := worker.NewTurnProcessor(store, llmService, nil, dice.NewDefaultRoller(), log)

	mux := http.NewServeMux()

	mux.Handle("/health", handlers.NewHealthHandler(store, log))

	sessionHandler := handlers.NewSessionHandler(store, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	mux.Handle("/v1/turn", handlers.NewTurnHandler(processor, log))

	handler := middleware.RequestLogger(log)(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: a turn can take several model round trips.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
