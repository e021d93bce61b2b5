// Zeon - hybrid chat and blockchain fundraising agent server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/ashureev/zeon-hybrid/internal/agent"
	"github.com/ashureev/zeon-hybrid/internal/api"
	"github.com/ashureev/zeon-hybrid/internal/config"
	"github.com/ashureev/zeon-hybrid/internal/health"
	"github.com/ashureev/zeon-hybrid/internal/identity"
	"github.com/ashureev/zeon-hybrid/internal/messaging"
	"github.com/ashureev/zeon-hybrid/internal/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(os.Getenv("LOG_LEVEL")),
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "env", cfg.AppEnv, "network", cfg.NetworkID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize dependencies", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Error("Failed to release dependencies", "error", closeErr)
		}
	}()

	conversationLogger, err := agent.NewConversationLogger(agent.ConversationLogConfig{
		Enabled:       cfg.ConversationLog.Enabled,
		Dir:           cfg.ConversationLog.Dir,
		GlobalEnabled: cfg.ConversationLog.GlobalEnabled,
		GlobalPath:    cfg.ConversationLog.GlobalPath,
		QueueSize:     cfg.ConversationLog.QueueSize,
	}, logger)
	if err != nil {
		slog.Error("Failed to initialize conversation logger", "error", err)
		os.Exit(1)
	}

	// Initialize handlers.
	corsOpts := middleware.CORSOptions{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowedPatterns: cfg.CORS.AllowedPatterns,
		Production:      cfg.IsProduction(),
	}
	chatHandler := agent.NewHandler(a.service, conversationLogger, agent.HandlerConfig{
		RateLimitRequests:  cfg.RateLimit.RequestsPerWindow,
		RateLimitWindow:    cfg.RateLimit.WindowDuration,
		MaxRequestBodySize: cfg.RateLimit.MaxRequestBodySize,
	})
	defer chatHandler.Close()

	bridge := messaging.NewBridge(a.service, messaging.NewConversations(), conversationLogger, messaging.BridgeConfig{
		OriginPatterns: corsOpts.OriginPatterns(),
	})
	statusHandler := api.NewStatusHandler(a.tracker, a.memory, a.ledger, a.blockchainReady, logger)
	qrHandler := api.NewQRHandler(nil, logger)
	fundraiserHandler := api.NewFundraiserHandler(a.ledger, cfg.FundraiserBaseURL, cfg.PublicAPIURL, logger)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(corsOpts))
	r.Use(identity.Middleware)

	statusHandler.RegisterRoutes(r)
	chatHandler.RegisterRoutes(r)
	qrHandler.RegisterRoutes(r)
	fundraiserHandler.RegisterRoutes(r)
	r.Get("/ws/chat", bridge.ServeHTTP)

	// Chat turns can wait on transaction confirmation, so there is no
	// WriteTimeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Background workers.
	a.memory.StartSweeper(ctx, cfg.Memory.SweepInterval, cfg.Memory.IdleTTL)
	go a.runAgentInit(ctx)

	var grpcHealth *health.Server
	if cfg.GRPCHealthPort != "" {
		grpcHealth = health.NewServer(a.tracker)
		go func() {
			addr := ":" + cfg.GRPCHealthPort
			slog.Info("gRPC health listening", "addr", addr)
			if err := grpcHealth.ListenAndServe(addr); err != nil {
				slog.Error("gRPC health server failed", "error", err)
			}
		}()
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")
	a.tracker.MarkNotReady()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bridge.Conversations().CloseAll()
	if grpcHealth != nil {
		grpcHealth.Stop()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server stopped successfully")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
