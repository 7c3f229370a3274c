package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/farmers-market-api/internal/auth"
	"github.com/01moynul/farmers-market-api/internal/database"
	"github.com/01moynul/farmers-market-api/internal/handlers"
	"github.com/01moynul/farmers-market-api/internal/routes"
	"github.com/01moynul/farmers-market-api/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand() *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply the schema before serving")
	return cmd
}

func serve(parent context.Context, migrate bool) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 0. --- Config & Logging ---
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	gin.SetMode(cfg.GinMode)

	// 1. --- Database Connection ---
	db, err := database.Open(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to the database", zap.Error(err))
		return err
	}
	defer db.Close()

	if migrate {
		if err := database.Migrate(ctx, db, log); err != nil {
			return err
		}
	}

	// 2. --- Metrics Registry ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, cfg.DBName),
	)

	// --- Application Setup ---
	tokens := auth.NewManager(cfg.JWTSecretKey, cfg.JWTTTL)
	app := &handlers.Handlers{
		Farmers:  store.NewFarmerStore(db, log),
		Products: store.NewProductStore(db, log),
		Users:    store.NewUserStore(db, log),
		Tokens:   tokens,
		DB:       db,
		Log:      log,
	}

	// --- Router Setup ---
	router := routes.SetupRouter(app, routes.Options{
		Tokens:         tokens,
		Log:            log,
		Registry:       registry,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// --- Start Server ---
	errCh := make(chan error, 1)
	go func() {
		log.Info("Server is running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("Server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
	}

	// --- Graceful Shutdown ---
	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
		return err
	}
	log.Info("Server stopped")
	return nil
}
