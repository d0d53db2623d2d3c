package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/transitfusion/fusion_core/internal/cache"
	"github.com/transitfusion/fusion_core/internal/config"
	"github.com/transitfusion/fusion_core/internal/graph"
	"github.com/transitfusion/fusion_core/internal/routing"
	"github.com/transitfusion/fusion_core/internal/store"
)

func newRouteCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "route",
		Short: "Find an itinerary between two stops",
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" || to == "" {
				return fmt.Errorf("--from and --to are required")
			}

			ctx := context.Background()
			cfg := config.Load()

			pgCfg := store.LoadPostgresConfigFromEnv()
			st, err := store.NewPostgresStore(ctx, pgCfg)
			if err != nil {
				return err
			}
			defer st.Close()

			redisCfg := cache.LoadRedisConfigFromEnv()
			arrivalsCache := cache.NewRedisCache(redisCfg)
			defer arrivalsCache.Close()

			holder := graph.NewHolder(st)
			router := routing.NewRouter(holder, arrivalsCache, routing.Config{MaxTransfers: cfg.RouterMaxTransfers})

			itinerary, err := router.FindItinerary(ctx, from, to)
			if err != nil {
				return err
			}

			fmt.Printf("transfers: %d, total eta: %ds\n", itinerary.Transfers, itinerary.TotalEtaSeconds)
			for i, leg := range itinerary.Legs {
				fmt.Printf("  leg %d: %s -> %s via %s, board in %ds, travel %ds (transfer=%v)\n",
					i+1, leg.FromStopID, leg.ToStopID, leg.RouteID, leg.BoardInSeconds, leg.TravelTimeSeconds, leg.IsTransferLeg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "origin stop id (base or directional)")
	cmd.Flags().StringVar(&to, "to", "", "destination stop id (base or directional)")

	return cmd
}
