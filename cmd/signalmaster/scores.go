package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/signalmaster/internal/storage"
)

var (
	flagScoresLimit int
	flagScoresClear bool
)

var scoresCmd = &cobra.Command{
	Use:   "scores <map>",
	Short: "Show the best runs on a map",
	Long: `Display the best recorded runs for the named map, ranked by cars
delivered and then by game time.

Examples:
  signalmaster scores Junction
  signalmaster scores Terminus --limit 20
  signalmaster scores Junction --clear`,
	Args: cobra.ExactArgs(1),
	Run:  runScores,
}

func init() {
	scoresCmd.Flags().IntVar(&flagScoresLimit, "limit", 10, "Number of runs to show")
	scoresCmd.Flags().BoolVar(&flagScoresClear, "clear", false, "Delete every recorded run for the map")
}

func runScores(_ *cobra.Command, args []string) {
	name := args[0]

	store, err := storage.Open(flagDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening scores database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if flagScoresClear {
		if err := store.ClearRuns(name); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Cleared runs for %s.\n", name)
		return
	}

	runs, err := store.TopRuns(name, flagScoresLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving runs: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Best Runs - %s\n", name)
	fmt.Println()

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		fmt.Println()
		fmt.Printf("Play 'signalmaster play %s' to set the first score!\n", name)
		return
	}

	fmt.Printf("  %-4s  %-5s  %-6s  %-5s  %-4s  %s\n", "Rank", "Cars", "Trains", "Clock", "Done", "Date")
	fmt.Printf("  %-4s  %-5s  %-6s  %-5s  %-4s  %s\n", "----", "----", "------", "-----", "----", "----")
	for i, r := range runs {
		done := "no"
		if r.Completed {
			done = "yes"
		}
		mins := int(r.Minutes)
		fmt.Printf("  %-4d  %-5d  %-6d  %02d:%02d  %-4s  %s\n",
			i+1, r.Score, r.Trains, mins/60, mins%60, done, r.CreatedAt.Format("2006-01-02 15:04"))
	}

	if st, err := store.MapStats(name); err == nil {
		fmt.Println()
		fmt.Printf("Runs: %d (%d completed)  Best: %d  Average: %.1f\n", st.Runs, st.Completed, st.HighScore, st.AvgScore)
	}
}
