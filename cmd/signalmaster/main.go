// signalmaster is a terminal rail network simulation: trains run to a
// timetable and the operator routes them by flipping switches.
//
// Usage:
//
//	signalmaster list              - List available maps
//	signalmaster play <map>        - Play a map
//	signalmaster menu              - Pick maps interactively
//	signalmaster run <map>         - Simulate a map headless, no operator
//	signalmaster check <file>...   - Parse and validate map files
//	signalmaster scores <map>      - Show the best runs on a map
//	signalmaster serve             - Start SSH server for remote play
//
// Global flags:
//
//	--fps <rate>        - Set tick rate (default: 30)
//	--db <path>         - Set database path (default: ~/.signalmaster/scores.db)
//	--config <path>     - Simulation config YAML
//	--maps <dir>        - Extra directory of .smap files
//	--log-level <lvl>   - debug, info, warn or error
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/signalmaster/internal/catalog"
	"github.com/vovakirdan/signalmaster/internal/config"
	"github.com/vovakirdan/signalmaster/internal/core"
	"github.com/vovakirdan/signalmaster/internal/mapdata"
)

var (
	// Global flags
	flagFPS      int
	flagDBPath   string
	flagConfig   string
	flagMapsDir  string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "signalmaster",
	Short: "Signalmaster - route trains through a rail network in your terminal",
	Long: `Signalmaster is a terminal rail network simulation. Trains enter the
network on a timetable and run to their destinations; you keep them moving
by flipping switches. A switch is locked while a train occupies any track
it controls.

Available commands:
  list     - Show all available maps
  play     - Play a specific map
  menu     - Interactive map picker
  run      - Simulate a map without an operator
  check    - Validate map files
  scores   - View the best runs on a map
  serve    - Start SSH server for remote play

Examples:
  signalmaster list
  signalmaster play Junction
  signalmaster menu --maps ./maps
  signalmaster run Terminus --until 03:00
  signalmaster check ./maps/*.smap
  signalmaster serve --ssh :2222`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 30, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.signalmaster/scores.db", "Path to scores database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to simulation config YAML")
	rootCmd.PersistentFlags().StringVar(&flagMapsDir, "maps", "", "Extra directory of map files")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(serveCmd)
}

// newLogger creates a logger at the --log-level level.
func newLogger(w io.Writer, prefix string) *log.Logger {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	})
}

// fileLogger writes to ~/.signalmaster/signalmaster.log so that log lines do
// not tear the full-screen UI. The returned func closes the file.
func fileLogger() (*log.Logger, func()) {
	home, err := os.UserHomeDir()
	if err != nil {
		return log.New(io.Discard), func() {}
	}
	dir := filepath.Join(home, ".signalmaster")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return log.New(io.Discard), func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "signalmaster.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return log.New(io.Discard), func() {}
	}
	return newLogger(f, "signalmaster"), func() { f.Close() }
}

// loadConfig reads --config or the default search path, exiting on failure.
func loadConfig() config.SimConfig {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// loadCatalog registers the bundled maps, then the configured map
// directories, then --maps. Later sources override earlier maps by name.
func loadCatalog(cfg config.SimConfig, logger *log.Logger) *catalog.Catalog {
	cat := catalog.New()
	loader := catalog.NewLoader(cfg, logger)

	loader.LoadFS(cat, mapdata.FS, ".", "bundled")
	for _, dir := range cfg.Catalog.MapDirs {
		loader.LoadDir(cat, dir)
	}
	if flagMapsDir != "" {
		loader.LoadDir(cat, flagMapsDir)
	}
	return cat
}

// runtimeConfig sizes the screen from the terminal.
func runtimeConfig() core.RuntimeConfig {
	cfg := core.DefaultConfig()
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		cfg.ScreenW = w
		cfg.ScreenH = h
	}
	if flagFPS > 0 {
		cfg.TickRate = flagFPS
	}
	return cfg
}

// requireMap exits with a hint when name is not in the catalog.
func requireMap(cat *catalog.Catalog, name string) {
	if !cat.Exists(name) {
		fmt.Fprintf(os.Stderr, "Error: unknown map %q\n", name)
		fmt.Fprintln(os.Stderr, "Run 'signalmaster list' to see available maps.")
		os.Exit(1)
	}
}
