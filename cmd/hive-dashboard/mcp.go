package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hive-dashboard/internal/dashboard"
	"hive-dashboard/internal/logging"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Expose the hive feed and chat as MCP tools over stdio",
		Long: `Runs an MCP server on stdin/stdout with the tools hive_latest, hive_window,
hive_chat_send and hive_chat_transcript. The feed keeps ticking in the background.
Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			log, err := logging.NewStderr(cfg.LogLevel, cfg.LogFormat, "hive-dashboard-mcp")
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

			sched, err := newScheduler(a, log)
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			server := dashboard.NewMCPServer(dashboard.NewMCPTools(a.feed, a.session), version)
			log.Info("mcp server ready on stdio")
			if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil && ctx.Err() == nil {
				log.Error("mcp server stopped", zap.Error(err))
				return err
			}
			a.session.Wait()
			return nil
		},
	}
}
