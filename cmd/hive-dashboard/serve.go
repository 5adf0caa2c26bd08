package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hive-dashboard/internal/analytics"
	"hive-dashboard/internal/dashboard"
	"hive-dashboard/internal/logging"
	"hive-dashboard/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard, its websocket updates and the MCP SSE endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.HTTPAddr = addr
			}

			log, err := logging.New(cfg.LogLevel, cfg.LogFormat, "hive-dashboard")
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, log)
			if err != nil {
				return err
			}
			return serve(ctx, a, log)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides HTTP_ADDR)")
	return cmd
}

func serve(ctx context.Context, a *app, log *zap.Logger) error {
	hub := dashboard.NewHub(log.Named("hub"))
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go hub.Run(hubCtx)

	mcpServer := dashboard.NewMCPServer(dashboard.NewMCPTools(a.feed, a.session), version)
	server := dashboard.NewServer(a.feed, a.session, hub, log.Named("http"),
		dashboard.WithMetrics(a.collector.Handler()),
		dashboard.WithMCP(dashboard.NewMCPHandler(mcpServer)),
	)

	sched, err := newScheduler(a, log)
	if err != nil {
		return err
	}
	sched.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(a.cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-errCh:
		if err != nil {
			log.Error("http server failed", zap.Error(err))
		}
	}

	sched.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := server.Stop(shutdownCtx); serr != nil {
		log.Warn("http shutdown incomplete", zap.Error(serr))
	}
	a.session.Wait()
	stopHub()
	return err
}

// newScheduler registers the feed tick and, when interactions are logged,
// the daily chat report.
func newScheduler(a *app, log *zap.Logger) (*scheduler.Scheduler, error) {
	sched := scheduler.New(log.Named("scheduler"))

	if err := sched.Every(a.cfg.FeedTickEvery, "feed-tick", func(ctx context.Context) {
		s := a.feed.Tick()
		log.Debug("feed tick", zap.String("label", s.Label), zap.Float64("temperature", s.Temperature))
	}); err != nil {
		return nil, err
	}

	if a.recorder == nil || a.cfg.DailyReportCron == "" {
		return sched, nil
	}
	if err := sched.Cron(a.cfg.DailyReportCron, "daily-report", func(ctx context.Context) error {
		events, err := a.recorder.LoadInteractions()
		if err != nil {
			return fmt.Errorf("load interactions: %w", err)
		}
		stats := analytics.AnalyzeDailyLogs(events, time.Now().UTC())
		log.Info("daily chat report",
			zap.String("date", stats.Date),
			zap.Int("messages", stats.TotalMessages),
			zap.String("summary", stats.GenerateReportSummary()),
		)
		return nil
	}); err != nil {
		return nil, err
	}
	return sched, nil
}
