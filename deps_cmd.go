package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sfjuke/sfjuke/internal/config"
	"github.com/sfjuke/sfjuke/internal/deps"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Check that the programs sfjuke runs are installed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		report := checkDependencies(cmd.Context(), cfg)
		fmt.Fprintln(cmd.OutOrStdout(), report.Render())
		return report.Err()
	},
}

func checkDependencies(ctx context.Context, cfg config.Config) deps.Report {
	if ctx == nil {
		ctx = context.Background()
	}
	tools := deps.Tools{
		Renderer:    cfg.Renderer.Binary,
		Encoder:     cfg.Export.Encoder,
		Midicsv:     cfg.Metadata.Midicsv,
		NeedMidicsv: cfg.NeedsMidicsv(),
	}
	return deps.Check(ctx, tools.Checkers()...)
}
