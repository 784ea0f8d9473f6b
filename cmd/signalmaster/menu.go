package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/signalmaster/internal/platform/tui"
	"github.com/vovakirdan/signalmaster/internal/storage"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Pick maps from an interactive menu",
	Long: `Start in interactive menu mode.

Use arrow keys or j/k to navigate, Enter to start a map and Tab to see the
best runs. When you leave a map you return to the menu.

Controls:
  Up/Down/j/k  - Navigate menu
  Enter/Space  - Start map
  Tab          - Scoreboard
  Q            - Quit

Examples:
  signalmaster menu
  signalmaster menu --maps ./maps
  signalmaster menu --db ./scores.db`,
	Run: runMenu,
}

func runMenu(_ *cobra.Command, _ []string) {
	logger, closeLog := fileLogger()
	defer closeLog()

	cfg := loadConfig()
	env := tui.Env{
		Catalog: loadCatalog(cfg, logger),
		Sim:     cfg,
		Logger:  logger,
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open scores database: %v\n", err)
	} else {
		env.Store = store
		defer store.Close()
	}

	rt := runtimeConfig()
	for {
		menuResult, err := tui.RunMenu(env.Catalog, env.Store, rt)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		rt = menuResult.Config

		if menuResult.Quit {
			return
		}

		if menuResult.WantsScoreboard {
			goBack, sbErr := tui.RunScoreboard(env.Catalog, env.Store, rt.ScreenW, rt.ScreenH)
			if sbErr != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", sbErr)
			}
			if goBack {
				continue
			}
			return
		}

		g, err := env.NewGame(menuResult.Map)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		if err := tui.Run(g, env.Store, logger, rt); err != nil {
			fmt.Fprintf(os.Stderr, "Error running map: %v\n", err)
		}
	}
}
