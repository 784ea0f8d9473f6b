package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/signalmaster/internal/sim"
	"github.com/vovakirdan/signalmaster/internal/storage"
)

var (
	flagUntil  string
	flagSpeed  float64
	flagNoSave bool
)

var runCmd = &cobra.Command{
	Use:   "run <map>",
	Short: "Simulate a map without an operator",
	Long: `Run the named map headless at the --fps tick rate with every switch left
in its initial state. Releases and arrivals are logged; a summary is printed
when the timetable completes or the clock reaches --until.

Trains that are never routed to their destination can circulate forever,
so the run always stops at --until.

Examples:
  signalmaster run Junction
  signalmaster run Terminus --until 06:00 --log-level debug
  signalmaster run MyYard --maps ./maps --no-save`,
	Args: cobra.ExactArgs(1),
	Run:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&flagUntil, "until", "24:00", "Stop at this game time (HH:MM)")
	runCmd.Flags().Float64Var(&flagSpeed, "speed", 0, "Clock multiplier (0 = config initial speed)")
	runCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Do not record the run in the scores database")
}

func runRun(_ *cobra.Command, args []string) {
	logger := newLogger(os.Stderr, "run")

	until, err := parseClock(flagUntil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfig()
	cat := loadCatalog(cfg, logger)
	requireMap(cat, args[0])
	m, err := cat.Get(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	e := sim.New(m, cfg, sim.WithLogger(logger))
	if flagSpeed != 0 {
		if err := e.SetSpeed(flagSpeed); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	fps := max(flagFPS, 1)
	frame := sim.Frame{Elapsed: time.Second / time.Duration(fps)}
	ticks := 0
	for !e.Done() && e.Minutes() < until {
		res := e.Step(frame)
		ticks++
		for _, tr := range res.Released {
			logger.Info("train released", "at", e.Clock(), "train", tr.ID, "type", tr.Type, "cars", len(tr.Cars), "dest", m.Key(tr.Dest))
		}
		for _, r := range res.Retired {
			logger.Info("train arrived", "at", e.Clock(), "train", r.TrainID, "dest", m.Key(r.Dest), "cars", r.Cars, "score", e.Score())
		}
	}

	completed := e.Done()
	fmt.Printf("Map:        %s\n", m.Name)
	fmt.Printf("Clock:      %s (%d ticks at %d fps, x%g)\n", e.Clock(), ticks, fps, e.Speed())
	fmt.Printf("Delivered:  %d trains, %d cars\n", e.Delivered(), e.Score())
	fmt.Printf("On network: %d trains\n", len(e.Trains()))
	fmt.Printf("Pending:    %d timetable entries\n", e.Pending())
	if completed {
		fmt.Println("Result:     timetable complete")
	} else {
		fmt.Printf("Result:     stopped at %s\n", flagUntil)
	}

	if flagNoSave || (e.Score() == 0 && !completed) {
		return
	}
	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open scores database", "err", err)
		return
	}
	defer store.Close()
	if _, err := store.SaveRun(storage.Run{
		Map:       m.Name,
		Score:     e.Score(),
		Trains:    e.Delivered(),
		Minutes:   e.Minutes(),
		Completed: completed,
	}); err != nil {
		logger.Error("could not save run", "err", err)
	}
}

// parseClock reads HH:MM as game minutes. Hours may exceed 23.
func parseClock(s string) (float64, error) {
	var h, m int
	if n, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil || n != 2 || h < 0 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return float64(h*60 + m), nil
}
