package main

import (
	"context"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/transitfusion/fusion_core/internal/config"
	"github.com/transitfusion/fusion_core/internal/graph"
	"github.com/transitfusion/fusion_core/internal/store"
)

func newRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild-graph",
		Short: "Recompile the station graph from the static store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			pgCfg := store.LoadPostgresConfigFromEnv()
			st, err := store.NewPostgresStore(ctx, pgCfg)
			if err != nil {
				return err
			}
			defer st.Close()

			return runRebuild(ctx, st)
		},
	}
}

func runRebuild(ctx context.Context, st store.Store) error {
	cfg := config.Load()
	builder := graph.NewBuilder(st, graph.BuilderConfig{
		DefaultEdgeSeconds: cfg.RouterDefaultEdgeSeconds,
		TransferPenaltyMin: int(cfg.TransferPenaltyMin.Seconds()),
		TransferPenaltyMax: int(cfg.TransferPenaltyMax.Seconds()),
	})

	start := time.Now()
	edgeCount, err := builder.Compile(ctx)
	if err != nil {
		return err
	}
	log.Printf("graph rebuild complete: %d edges in %s", edgeCount, time.Since(start))
	return nil
}
