package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"hive-dashboard/internal/config"
	"hive-dashboard/internal/telemetry"
)

type snapshot struct {
	Window  []telemetry.Sample `json:"window" yaml:"window"`
	Status  telemetry.Status   `json:"status" yaml:"status"`
	Summary telemetry.Summary  `json:"summary" yaml:"summary"`
}

func newSnapshotCmd() *cobra.Command {
	var (
		format string
		ticks  int
		seed   int64
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print a freshly simulated window of hive readings",
		Long: `Builds a feed from FEED_CAPACITY and FEED_SPACING, advances it --ticks times
and prints the window with its status badges and summary. No LLM provider is needed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ticks < 0 {
				return fmt.Errorf("--ticks must not be negative, got %d", ticks)
			}

			var opts []telemetry.Option
			if cmd.Flags().Changed("seed") {
				opts = append(opts, telemetry.WithRand(rand.New(rand.NewSource(seed))))
			}
			feed := telemetry.NewFeed(cfg.FeedCapacity, cfg.FeedSpacing, opts...)
			for i := 0; i < ticks; i++ {
				feed.Tick()
			}

			window := feed.Window()
			return writeSnapshot(cmd.OutOrStdout(), format, snapshot{
				Window:  window,
				Status:  telemetry.Assess(window[len(window)-1]),
				Summary: telemetry.Summarize(window),
			})
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "number of ticks to advance before printing")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for reproducible readings")
	return cmd
}

func writeSnapshot(w io.Writer, format string, s snapshot) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q, want yaml or json", format)
	}
}
