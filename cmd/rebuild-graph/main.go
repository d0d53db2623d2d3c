// Command rebuild-graph runs the Graph Compiler against the configured
// Static Store and commits a fresh edge set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/transitfusion/fusion_core/internal/config"
	"github.com/transitfusion/fusion_core/internal/graph"
	"github.com/transitfusion/fusion_core/internal/store"
)

func main() {
	skipConfirm := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	log.Println("fusion-core graph rebuild tool")

	cfg := config.Load()
	ctx := context.Background()

	pgCfg := store.LoadPostgresConfigFromEnv()
	st, err := store.NewPostgresStore(ctx, pgCfg)
	if err != nil {
		log.Fatalf("connecting to static store: %v", err)
	}
	defer st.Close()

	stops, err := st.Stops(ctx)
	if err != nil {
		log.Fatalf("counting stops: %v", err)
	}
	stopTimes, err := st.StopTimesByTrip(ctx)
	if err != nil {
		log.Fatalf("counting stop_times: %v", err)
	}
	log.Printf("static data: %d stops, %d trips with stop_times", len(stops), len(stopTimes))

	if len(stops) == 0 || len(stopTimes) == 0 {
		log.Fatal("no static data found; run the static import first")
	}

	if !*skipConfirm {
		fmt.Print("This replaces the existing graph edge set. Continue? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			log.Println("rebuild cancelled")
			os.Exit(0)
		}
	}

	builder := graph.NewBuilder(st, graph.BuilderConfig{
		DefaultEdgeSeconds: cfg.RouterDefaultEdgeSeconds,
		TransferPenaltyMin: int(cfg.TransferPenaltyMin.Seconds()),
		TransferPenaltyMax: int(cfg.TransferPenaltyMax.Seconds()),
	})

	start := time.Now()
	edgeCount, err := builder.Compile(ctx)
	if err != nil {
		log.Fatalf("rebuilding graph: %v", err)
	}

	log.Printf("graph rebuild complete: %d edges in %s", edgeCount, time.Since(start))
}
