package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hive-dashboard/internal/chat"
	"hive-dashboard/internal/config"
	"hive-dashboard/internal/llm"
	"hive-dashboard/internal/metrics"
	"hive-dashboard/internal/storage"
	"hive-dashboard/internal/telemetry"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "hive-dashboard",
		Short: "Smart beehive dashboard with a hive-aware chat assistant",
		Long: `hive-dashboard simulates a beehive sensor feed, keeps a rolling window of
readings and lets a beekeeper chat with an assistant that sees the latest reading.

The browser dashboard is served by "serve"; "mcp" exposes the same feed and chat
to MCP clients over stdio; "snapshot" prints a freshly simulated window.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile == "" {
				return
			}
			if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to load %s: %v\n", envFile, err)
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(newServeCmd(), newMCPCmd(), newSnapshotCmd())
	return root
}

// app is the part of the process shared by every long-running mode.
type app struct {
	cfg       *config.Config
	feed      *telemetry.Feed
	session   *chat.Session
	collector *metrics.Collector
	recorder  storage.Recorder
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	client, err := llm.NewFactory(cfg).CreateClient(ctx, string(cfg.LLMProvider))
	if err != nil {
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}

	a := &app{
		cfg:       cfg,
		feed:      telemetry.NewFeed(cfg.FeedCapacity, cfg.FeedSpacing),
		collector: metrics.New(),
	}
	a.collector.ObserveSample(a.feed.Latest())
	a.feed.Subscribe(a.collector.ObserveWindow)

	if cfg.InteractionLogPath != "" {
		fr, err := storage.NewFileRecorder(cfg.InteractionLogPath)
		if err != nil {
			log.Warn("interaction log disabled", zap.String("path", cfg.InteractionLogPath), zap.Error(err))
		} else {
			a.recorder = fr
		}
	}

	opts := []chat.Option{
		chat.WithLogger(log.Named("chat")),
		chat.WithReplyTimeout(cfg.ReplyTimeout),
		chat.WithObserver(a.collector),
	}
	if a.recorder != nil {
		opts = append(opts, chat.WithRecorder(a.recorder))
	}

	responder := chat.NewLLMResponder(client, readSystemPrompt(cfg.SystemPromptPath, log), log.Named("llm"))
	a.session = chat.NewSession(responder, a.feed, opts...)

	log.Info("hive dashboard initialized",
		zap.String("provider", string(cfg.LLMProvider)),
		zap.Int("capacity", a.feed.Capacity()),
		zap.Duration("spacing", cfg.FeedSpacing),
		zap.Duration("tick_every", cfg.FeedTickEvery),
		zap.Bool("interaction_log", a.recorder != nil),
	)
	return a, nil
}

func readSystemPrompt(path string, log *zap.Logger) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Info("system prompt file not found, using default persona", zap.String("path", path))
		return ""
	}
	return strings.TrimSpace(string(data))
}
