package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/transitfusion/fusion_core/internal/cache"
)

func newArrivalsCmd() *cobra.Command {
	var stopID, direction string

	cmd := &cobra.Command{
		Use:   "arrivals",
		Short: "Print the cached arrivals for a stop and direction",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stopID == "" || direction == "" {
				return fmt.Errorf("--stop and --direction are required")
			}

			ctx := context.Background()
			redisCfg := cache.LoadRedisConfigFromEnv()
			arrivalsCache := cache.NewRedisCache(redisCfg)
			defer arrivalsCache.Close()

			entry, err := arrivalsCache.Get(ctx, stopID, direction)
			if err != nil {
				return err
			}
			if entry == nil {
				fmt.Println("no cached arrivals")
				return nil
			}

			fmt.Printf("as of %d (cached at %d):\n", entry.AsOfTs, entry.CachedAt)
			for _, p := range entry.Arrivals {
				fmt.Printf("  %s (%s): %ds\n", p.RouteID, p.Headsign, p.EtaSeconds)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&stopID, "stop", "", "base stop id")
	cmd.Flags().StringVar(&direction, "direction", "", "direction (N, S, E, or W)")

	return cmd
}
