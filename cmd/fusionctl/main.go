// Command fusionctl is the operator CLI for the fusion engine: static
// feed import, graph rebuilds, and one-off itinerary/arrivals lookups.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "fusionctl",
		Short: "Operate the transit fusion and routing engine",
	}

	root.AddCommand(newImportCmd())
	root.AddCommand(newRebuildCmd())
	root.AddCommand(newRouteCmd())
	root.AddCommand(newArrivalsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.SetFlags(0)
		os.Exit(1)
	}
}
