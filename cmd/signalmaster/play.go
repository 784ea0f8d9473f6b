package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/signalmaster/internal/game"
	"github.com/vovakirdan/signalmaster/internal/platform/tui"
	"github.com/vovakirdan/signalmaster/internal/storage"
)

var playCmd = &cobra.Command{
	Use:   "play <map>",
	Short: "Play a map",
	Long: `Start the named map in the terminal.

Controls:
  Mouse click  - Flip the switch under the cursor
  + / -        - Faster / slower clock
  P/Space      - Pause
  R            - Restart the map
  Esc/Q        - Quit
  Ctrl+S       - Save a screenshot

Logs are written to ~/.signalmaster/signalmaster.log.

Examples:
  signalmaster play Junction
  signalmaster play Terminus --fps 60
  signalmaster play MyYard --maps ./maps`,
	Args: cobra.ExactArgs(1),
	Run:  runPlay,
}

func runPlay(_ *cobra.Command, args []string) {
	logger, closeLog := fileLogger()
	defer closeLog()

	cfg := loadConfig()
	cat := loadCatalog(cfg, logger)
	requireMap(cat, args[0])

	m, err := cat.Get(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
		// Continue without storage
		store = nil
	}

	runErr := tui.Run(game.New(m, cfg, logger), store, logger, runtimeConfig())

	if store != nil {
		store.Close()
	}
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error running map: %v\n", runErr)
		os.Exit(1)
	}
}
