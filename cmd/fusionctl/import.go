package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/transitfusion/fusion_core/internal/gtfsstatic"
	"github.com/transitfusion/fusion_core/internal/store"
)

func newImportCmd() *cobra.Command {
	var gtfsPath string
	var rebuildGraph bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Parse a static GTFS bundle and load it into the static store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if gtfsPath == "" {
				return fmt.Errorf("--gtfs is required")
			}
			if _, err := os.Stat(gtfsPath); err != nil {
				return fmt.Errorf("gtfs path %q: %w", gtfsPath, err)
			}

			ctx := context.Background()
			start := time.Now()

			log.Printf("parsing static feed from %s", gtfsPath)
			feed, err := parseFeed(gtfsPath)
			if err != nil {
				return fmt.Errorf("parsing static feed: %w", err)
			}
			log.Printf("parsed %d stops, %d routes, %d trips, %d stop_times, %d transfers",
				len(feed.Stops), len(feed.Routes), len(feed.Trips), len(feed.StopTimes), len(feed.Transfers))

			pgCfg := store.LoadPostgresConfigFromEnv()
			st, err := store.NewPostgresStore(ctx, pgCfg)
			if err != nil {
				return fmt.Errorf("connecting to static store: %w", err)
			}
			defer st.Close()

			if err := st.ReplaceStaticData(ctx, feed); err != nil {
				return fmt.Errorf("committing static data: %w", err)
			}
			log.Printf("static import complete in %s", time.Since(start))

			if rebuildGraph {
				return runRebuild(ctx, st)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&gtfsPath, "gtfs", "", "path to a GTFS directory or zip file")
	cmd.Flags().BoolVar(&rebuildGraph, "rebuild-graph", false, "run the graph compiler after import")

	return cmd
}

func parseFeed(path string) (*gtfsstatic.Feed, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return gtfsstatic.ParseDir(path)
	}
	return gtfsstatic.ParseZip(path)
}
