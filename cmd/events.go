package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/gridscout/internal/parser"
	"github.com/pable/gridscout/internal/report"
)

var (
	eventsChains   int
	eventsTimeline time.Duration
)

var eventsCmd = &cobra.Command{
	Use:   "events <file>",
	Short: "Summarise the events of a series event file",
	Long: `Read a GRID series event file (ZIP, JSONL or JSONL.zst), flatten it and
print per-type event counts and the longest correlation chains.`,
	Args: cobra.ExactArgs(1),
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().IntVar(&eventsChains, "chains", 10, "number of correlation chains to show")
	eventsCmd.Flags().DurationVar(&eventsTimeline, "timeline", 0, "also print event counts per interval (e.g. 1m)")
}

func runEvents(cmd *cobra.Command, args []string) error {
	m, stats, err := loadMatch(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	fmt.Fprintf(os.Stdout, "\nSeries: %s  |  Files: %d  |  Records: %d  |  Events: %d",
		m.Series.ID, stats.Files, stats.Records, len(m.Events))
	if stats.Skipped > 0 {
		cWarn.Fprintf(os.Stdout, "  |  Skipped lines: %d", stats.Skipped)
	}
	fmt.Fprint(os.Stdout, "\n\n")

	report.PrintEventCounts(os.Stdout, parser.CountByType(m.Events))
	fmt.Fprintln(os.Stdout)
	report.PrintChainTable(os.Stdout, parser.LongestCorrelationChains(m.Events, eventsChains))

	if eventsTimeline > 0 {
		fmt.Fprintln(os.Stdout)
		report.PrintTimeline(os.Stdout, parser.EventsOverTime(m.Events, eventsTimeline))
	}
	return nil
}
