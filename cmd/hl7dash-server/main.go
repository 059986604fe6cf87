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

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hl7dash/hl7dash/internal/config"
	"github.com/hl7dash/hl7dash/internal/domain/dashboard"
	"github.com/hl7dash/hl7dash/internal/domain/journey"
	"github.com/hl7dash/hl7dash/internal/domain/message"
	"github.com/hl7dash/hl7dash/internal/domain/stream"
	"github.com/hl7dash/hl7dash/internal/platform/analytics"
	"github.com/hl7dash/hl7dash/internal/platform/feed"
	"github.com/hl7dash/hl7dash/internal/platform/middleware"
	"github.com/hl7dash/hl7dash/internal/platform/upstream"
	"github.com/hl7dash/hl7dash/internal/platform/ws"
)

const version = "0.1.0"

// feedRetryDelay is the pause before redialing the gateway feed after a
// dropped connection or a failed dial.
const feedRetryDelay = 5 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "hl7dash-server",
		Short: "HL7 dashboard aggregation server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the dashboard API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the server version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Upstream gateway client
	client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.HTTPTimeout(), logger)
	logger.Info().Str("upstream", cfg.UpstreamBaseURL).Msg("upstream gateway configured")

	// Live-update hub and pipeline metrics
	hub := ws.NewHub(logger)
	tracker := analytics.NewTracker()

	// Dashboard orchestrator
	orch := dashboard.NewOrchestrator(client, cfg.DashboardRangeDays, logger)
	orch.SetPublisher(hub)
	orch.SetMetrics(tracker)

	// Domain services
	msgSvc := message.NewService(client, logger)
	msgSvc.SetResetter(orch)
	journeySvc := journey.NewService(client, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{
			"status":     "ok",
			"version":    version,
			"ws_clients": hub.ClientCount(),
		})
	})

	// API routes
	apiV1 := e.Group("/api/v1")
	message.NewHandler(msgSvc).RegisterRoutes(apiV1)
	journey.NewHandler(journeySvc).RegisterRoutes(apiV1)
	dashboard.NewHandler(orch).RegisterRoutes(apiV1)
	analytics.NewHandler(tracker).RegisterRoutes(apiV1)
	ws.NewHandler(hub).RegisterRoutes(e.Group(""))

	// Feed pipeline: gateway WebSocket -> batcher -> orchestrator. The loop
	// redials after drops; the orchestrator survives across connections.
	if cfg.FeedURL != "" {
		go runFeedPipeline(ctx, cfg, orch, logger)
	} else {
		logger.Warn().Msg("FEED_URL not set; charts refresh only on demand")
	}

	// Initial chart build so the dashboard is never empty on startup.
	go func() {
		if _, err := orch.RefreshDefault(ctx); err != nil && !errors.Is(err, dashboard.ErrStaleRefresh) {
			logger.Warn().Err(err).Msg("initial chart refresh failed")
		}
	}()

	// Start server
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}

func runFeedPipeline(ctx context.Context, cfg *config.Config, orch *dashboard.Orchestrator, logger zerolog.Logger) {
	for {
		if ctx.Err() != nil {
			return
		}

		sub, err := feed.Dial(ctx, cfg.FeedURL, logger)
		if err != nil {
			logger.Warn().Err(err).Str("url", cfg.FeedURL).Msg("feed dial failed, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(feedRetryDelay):
			}
			continue
		}

		batches := stream.NewBatcher(cfg.BatchWindow()).Run(ctx, sub.Events())
		orch.Run(ctx, batches, cfg.AggregateInterval())
		sub.Close()

		if ctx.Err() != nil {
			return
		}
		logger.Warn().Str("url", cfg.FeedURL).Msg("feed connection lost, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(feedRetryDelay):
		}
	}
}
