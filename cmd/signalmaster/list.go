package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available maps",
	Long:  `Shows every map in the catalog: the bundled maps plus any loaded with --maps or the config's map_dirs.`,
	Run:   runList,
}

func runList(_ *cobra.Command, _ []string) {
	cfg := loadConfig()
	cat := loadCatalog(cfg, newLogger(os.Stderr, "catalog"))
	maps := cat.List()

	if len(maps) == 0 {
		fmt.Println("No maps available.")
		return
	}

	fmt.Println("Available maps:")
	fmt.Println()

	maxNameLen := 4 // "Name" header
	for _, info := range maps {
		maxNameLen = max(maxNameLen, len(info.Name))
	}

	fmt.Printf("  %-*s  %6s  %8s  %8s  %6s  %s\n", maxNameLen, "Name", "Tracks", "Switches", "Stations", "Trains", "Source")
	fmt.Printf("  %-*s  %6s  %8s  %8s  %6s  %s\n", maxNameLen, "----", "------", "--------", "--------", "------", "------")
	for _, info := range maps {
		fmt.Printf("  %-*s  %6d  %8d  %8d  %6d  %s\n", maxNameLen, info.Name, info.Tracks, info.Switches, info.Stations, info.Spawns, info.Source)
	}

	fmt.Println()
	fmt.Println("Run 'signalmaster play <name>' to play a map.")
}
