// cmd/task-server/main.go
package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pageforge/internal/common/config"
	"pageforge/internal/common/github"
	"pageforge/internal/common/logger"
	"pageforge/internal/gateway"
	"pageforge/internal/orchestrator"
	sendcallback "pageforge/internal/workers/deployment/send-callback"
	verifypages "pageforge/internal/workers/deployment/verify-pages"
	htmlgenerate "pageforge/internal/workers/generation/html-generate"
	publishsite "pageforge/internal/workers/repository/publish-site"
	revisesite "pageforge/internal/workers/repository/revise-site"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger config is not available yet, fall back to a bare logger.
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting task server...",
		zap.Int("port", cfg.Server.Port),
		zap.String("githubUser", cfg.GitHub.Username),
	)

	ghClient := github.NewClient(cfg.GitHub.APIBaseURL, cfg.GitHub.Token, config.GetDuration(cfg.GitHub.TimeoutMS))

	generator := htmlgenerate.NewHandler(
		&htmlgenerate.Config{
			BaseURL: cfg.GenAI.BaseURL,
			Token:   cfg.GenAI.Token,
			Model:   cfg.GenAI.Model,
			Timeout: config.GetDuration(cfg.GenAI.TimeoutMS),
		},
		log,
	)
	publisher := publishsite.NewHandler(ghClient, log)
	reviser := revisesite.NewHandler(
		&revisesite.Config{Owner: cfg.GitHub.Username},
		ghClient, generator, log,
	)
	verifier := verifypages.NewHandler(
		&verifypages.Config{
			PollInterval: cfg.Verify.PollInterval(),
			ProbeTimeout: cfg.Verify.ProbeTimeout(),
			Deadline:     cfg.Verify.Deadline(),
		},
		log,
	)
	notifier := sendcallback.NewHandler(
		&sendcallback.Config{
			MaxAttempts:    cfg.Callback.MaxAttempts,
			BackoffBase:    cfg.Callback.BackoffBase(),
			RequestTimeout: cfg.Callback.RequestTimeout(),
		},
		log,
	)

	orch := orchestrator.New(cfg.GitHub.PagesURL, generator, publisher, reviser, verifier, notifier, log)

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())

	gw, err := gateway.NewHandler(cfg.Auth.Secret, orch, log)
	if err != nil {
		zapLog.Fatal("gateway init failed", zap.Error(err))
	}
	gw.RegisterRoutes(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: router,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	// pprof stays on its own listener so it is never exposed with the API.
	go func() {
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			zapLog.Warn("pprof listener failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Server stopped")
}
