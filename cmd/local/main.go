// Command local serves the post office over HTTP for development, with
// sessions on disk and secrets from the environment.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"starlight-postoffice/handler"
	"starlight-postoffice/internal/app"
	"starlight-postoffice/internal/config"
	"starlight-postoffice/internal/integrations/openai"
	"starlight-postoffice/internal/integrations/paramstore"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	params := paramstore.NewEnv(map[string]string{
		"open-ai-token":  "OPENAI_API_KEY",
		"persona_prompt": "PERSONA_PROMPT",
	})
	prefix := cfg.ParamPrefix
	if prefix == "" {
		prefix = "/local"
	}
	cfg.ParamPrefix = prefix

	llm, err := openai.NewClient(params, prefix,
		openai.WithBaseURL(cfg.OpenAIBaseURL),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		slog.Error("Failed to create OpenAI client", "error", err)
		os.Exit(1)
	}

	sessions, err := app.SessionStore(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open session store", "error", err, "backend", cfg.SessionBackend)
		os.Exit(1)
	}

	postOffice, err := app.Build(cfg, llm, sessions, params, logger)
	if err != nil {
		slog.Error("Failed to build post office", "error", err)
		os.Exit(1)
	}
	defer postOffice.Close()
	postOffice.Indexer.Start(ctx)

	h, err := handler.NewHandler(postOffice.PostOffice)
	if err != nil {
		slog.Error("Failed to create handler", "error", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Post("/chat", h.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "sessions", cfg.SessionBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exited")
}
