package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/gridscout/internal/report"
	"github.com/pable/gridscout/internal/segment"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments <file>",
	Short: "Show the game and round segmentation of a series event file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSegments,
}

func runSegments(cmd *cobra.Command, args []string) error {
	m, _, err := loadMatch(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	games := segment.ExtractGameSegments(m.Events)
	if len(games) == 0 {
		cWarn.Fprintf(os.Stderr, "No games found in %s (%d events)\n", args[0], len(m.Events))
		return nil
	}

	rounds := 0
	for _, g := range games {
		rounds += len(g.Rounds)
	}
	fmt.Fprintf(os.Stdout, "\nSeries: %s  |  Games: %d  |  Rounds: %d\n\n", m.Series.ID, len(games), rounds)
	report.PrintSegmentTable(os.Stdout, games)
	return nil
}
