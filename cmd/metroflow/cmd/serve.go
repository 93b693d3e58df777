package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lan-dot-party/metroflow/internal/api"
	"github.com/lan-dot-party/metroflow/internal/dashboard"
	"github.com/lan-dot-party/metroflow/internal/logger"
	"github.com/lan-dot-party/metroflow/internal/scheduler"
)

var (
	noScheduler bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard web server",
	Long: `Start the MetroFlow web server with optional scheduler.

The server provides:
  • The dashboard page with date filters
  • JSON state and load cycle journal under /api
  • Prometheus metrics endpoint (/metrics)
  • Optional scheduled refreshes

Examples:
  # Start server with scheduler (if enabled in config)
  metroflow serve

  # Start server without scheduler
  metroflow serve --no-scheduler`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg == nil {
		return fmt.Errorf("configuration not loaded")
	}

	if !cfg.Webserver.Enabled {
		return fmt.Errorf("webserver is disabled in configuration (set webserver.enabled: true)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A broken journal must not take the dashboard down.
	store, err := openJournal(ctx, cfg)
	if err != nil {
		logger.Warn("Journal unavailable, continuing without it", zap.Error(err))
		store = nil
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	ctrl, err := newController(cfg, formatSVG, store)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	server, err := api.NewServer(cfg, ctrl, store, logger.Named("api"))
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	var sched *scheduler.Scheduler
	var prune *scheduler.PruneJob
	if store != nil {
		prune = scheduler.NewPruneJob(store, cfg.Storage.Retention, logger.Named("retention"))
	}
	schedulerEnabled := cfg.Scheduler.Enabled && !noScheduler
	if schedulerEnabled {
		refresh := scheduler.NewRefreshJob(ctrl, cfg.Upstream.Timeout, logger.Named("refresh"))
		sched, err = scheduler.NewScheduler(&cfg.Scheduler, refresh, prune, logger.Named("scheduler"))
		if err != nil {
			logger.Warn("Failed to create scheduler", zap.Error(err))
			schedulerEnabled = false
		}
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()

		// Abort in-flight cycles so the scheduler can drain
		ctrl.Close()
		if sched != nil {
			sched.Stop()
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", zap.Error(err))
		}
	}()

	// Print startup info
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════╗")
	fmt.Println("║       MetroFlow Dashboard Server          ║")
	fmt.Println("╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Listen:      http://%s\n", cfg.Webserver.Listen)
	fmt.Printf("  Upstream:    %s\n", cfg.Upstream.BaseURL)
	if store != nil {
		fmt.Printf("  Journal:     %s\n", cfg.Storage.Type)
	} else {
		fmt.Printf("  Journal:     disabled\n")
	}
	if cfg.Webserver.Auth.Enabled() {
		fmt.Printf("  Auth:        Basic Auth enabled\n")
	} else {
		fmt.Printf("  Auth:        None\n")
	}

	if schedulerEnabled && sched != nil {
		if err := sched.Start(); err != nil {
			logger.Error("Failed to start scheduler", zap.Error(err))
		} else {
			server.SetScheduler(sched)
			fmt.Printf("  Scheduler:   ✅ enabled (%s)\n", cfg.Scheduler.Schedule)
			fmt.Printf("  Next run:    %s\n", sched.GetStatus().NextRun)
		}
	} else {
		fmt.Printf("  Scheduler:   disabled\n")
	}

	fmt.Println()
	fmt.Println("  Dashboard:")
	fmt.Println("    GET  /                    - Dashboard page")
	fmt.Println("    POST /filters/apply       - Apply date filters")
	fmt.Println("    POST /filters/reset       - Reset date filters")
	fmt.Println()
	fmt.Println("  API Endpoints (Read-Only):")
	fmt.Println("    GET  /api/                - Endpoint index")
	fmt.Println("    GET  /api/state           - Dashboard state")
	fmt.Println("    GET  /api/cycles          - Load cycle journal")
	fmt.Println("    GET  /api/cycles/stats    - Load cycle statistics")
	fmt.Println("    GET  /health              - Health check")
	fmt.Println("    GET  /metrics             - Prometheus metrics")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// Initial load, and one retention pass in case the scheduler is off.
	go func() {
		if prune != nil {
			if _, err := prune.RunWithContext(ctx); err != nil {
				logger.Warn("Initial journal retention failed", zap.Error(err))
			}
		}
		_ = ctrl.Load(ctx, dashboard.DateRange{})
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		select {
		case <-ctx.Done():
			return nil
		default:
			return fmt.Errorf("server error: %w", err)
		}
	}

	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false,
		"disable scheduler even if enabled in config")
}
