package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/signalmaster/internal/railmap"
	"github.com/vovakirdan/signalmaster/internal/sim"
)

var flagStrict bool

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Parse and validate map files",
	Long: `Parse each map file and report format errors as file:line: reason.
Maps that parse are also checked against the movement model: spawn tracks
must be straight and long enough for the train, and curved tracks should not
be reachable by traffic. Those findings are warnings unless --strict is set.

Exits with status 1 if any file fails.

Examples:
  signalmaster check ./maps/yard.smap
  signalmaster check --strict ./maps/*.smap`,
	Args: cobra.MinimumNArgs(1),
	Run:  runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&flagStrict, "strict", false, "Treat movement warnings as failures")
}

func runCheck(_ *cobra.Command, args []string) {
	cfg := loadConfig()
	opts := railmap.Options{
		DisplayWidth:  cfg.Display.Width,
		DisplayHeight: cfg.Display.Height,
		SwitchMargin:  cfg.Switch.HitMargin,
	}

	failed := 0
	for _, file := range args {
		o := opts
		o.File = file
		m, err := railmap.ParseFile(file, o)
		if err != nil {
			failed++
			var pe *railmap.ParseError
			if errors.As(err, &pe) {
				fmt.Fprintln(os.Stderr, pe.Error())
			} else {
				fmt.Fprintf(os.Stderr, "%s: %v\n", file, err)
			}
			continue
		}

		warnings := sim.Validate(m, cfg)
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "%s: warning: %v\n", file, w)
		}
		if flagStrict && len(warnings) > 0 {
			failed++
			continue
		}
		fmt.Printf("%s: ok (%s: %d tracks, %d switches, %d stations, %d trains)\n",
			file, m.Name, len(m.Tracks), len(m.Switches), len(m.Stations), len(m.Spawns))
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d files failed\n", failed, len(args))
		os.Exit(1)
	}
}
