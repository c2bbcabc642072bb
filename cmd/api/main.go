// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/halcyon-ai/agent-console/internal/config"
	"github.com/halcyon-ai/agent-console/internal/handler"
	"github.com/halcyon-ai/agent-console/internal/llm"
	"github.com/halcyon-ai/agent-console/internal/middleware"
	natsclient "github.com/halcyon-ai/agent-console/internal/nats"
	"github.com/halcyon-ai/agent-console/internal/service"
	"github.com/halcyon-ai/agent-console/internal/tools"
	"github.com/halcyon-ai/agent-console/pkg/logger"
	"github.com/halcyon-ai/agent-console/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "agent-console", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", "error", err)
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	natsClient, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	// Ensure JetStream stream exists
	streamManager := natsclient.NewStreamManager(natsClient)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure stream", "error", err)
		os.Exit(1)
	}

	// Initialize LLM client
	var llmClient llm.Client
	if cfg.AnthropicAPIKey != "" {
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	} else if cfg.OpenAIAPIKey != "" {
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	} else {
		log.Error("no LLM API key configured")
		os.Exit(1)
	}
	if err != nil {
		log.Error("failed to create LLM client", "error", err)
		os.Exit(1)
	}

	// Tool workspace
	workspace, err := tools.NewWorkspace(cfg.WorkspacePath)
	if err != nil {
		log.Error("failed to resolve workspace", "error", err, "path", cfg.WorkspacePath)
		os.Exit(1)
	}

	// Initialize services
	memorySvc := service.NewMemoryService(log)
	registry := tools.NewRegistry(tools.Config{
		Workspace:   workspace,
		BashTimeout: cfg.BashTimeout,
		Memory:      memorySvc,
	})
	sessionSvc := service.NewSessionService(streamManager, log)
	operationSvc := service.NewOperationService(registry, log)
	chatSvc := service.NewChatService(llmClient, registry, operationSvc, cfg.DefaultModel, log)
	mcpSvc := service.NewMCPService(log)
	skillSvc := service.NewSkillService(log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient)
	chatHandler := handler.NewChatHandler(chatSvc, sessionSvc, log)
	sessionHandler := handler.NewSessionHandler(sessionSvc, log)
	operationHandler := handler.NewOperationHandler(operationSvc, log)
	mcpHandler := handler.NewMCPHandler(mcpSvc, log)
	memoryHandler := handler.NewMemoryHandler(memorySvc, log)
	skillHandler := handler.NewSkillHandler(skillSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Chat
		r.Post("/chat", chatHandler.Chat)
		r.Get("/model", chatHandler.GetModel)
		r.Post("/model", chatHandler.SetModel)
		r.Post("/save-message", sessionHandler.SaveMessage)

		// History
		r.Route("/history", func(r chi.Router) {
			r.Get("/", sessionHandler.History)
			r.Delete("/", sessionHandler.Clear)
			r.Get("/search", sessionHandler.Search)
			r.Get("/stats", sessionHandler.Stats)
			r.Get("/export", sessionHandler.Export)
		})

		// Operation log and approvals
		r.Route("/operations", func(r chi.Router) {
			r.Get("/", operationHandler.List)
			r.Get("/pending", operationHandler.Pending)
			r.Get("/stats", operationHandler.Stats)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", operationHandler.Get)
				r.Post("/approve", operationHandler.Approve)
				r.Post("/reject", operationHandler.Reject)
			})
		})

		// MCP server configs
		r.Route("/mcp/servers", func(r chi.Router) {
			r.Get("/", mcpHandler.List)
			r.Post("/", mcpHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", mcpHandler.Get)
				r.Put("/", mcpHandler.Update)
				r.Delete("/", mcpHandler.Delete)
			})
		})

		// Memory notes
		r.Route("/memory", func(r chi.Router) {
			r.Get("/", memoryHandler.List)
			r.Post("/", memoryHandler.Create)
			r.Get("/search", memoryHandler.Search)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", memoryHandler.Get)
				r.Put("/", memoryHandler.Update)
				r.Delete("/", memoryHandler.Delete)
			})
		})

		// Skills
		r.Route("/skills", func(r chi.Router) {
			r.Get("/", skillHandler.List)
			r.Post("/", skillHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", skillHandler.Get)
				r.Put("/", skillHandler.Update)
				r.Delete("/", skillHandler.Delete)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
