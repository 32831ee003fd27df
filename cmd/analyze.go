package cmd

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/gridscout/internal/aggregator"
	"github.com/pable/gridscout/internal/model"
	"github.com/pable/gridscout/internal/report"
	"github.com/pable/gridscout/internal/storage"
)

var (
	analyzeLLM        bool
	analyzeVerbose    bool
	analyzeCheckpoint bool
	analyzeRounds     bool
	analyzeWindow     string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <player-id> <file-or-series>...",
	Short: "Analyse a player's performance over one or more series",
	Long: `Analyse a player over GRID series event files (or series ids, downloaded on
demand), one series at a time, and print series, game, positioning and trend
tables.

Examples:
  # Two local event files
  gridscout analyze 12345 events_2600.zip events_2601.zip

  # Fold new series into the stored analysis and print the LLM summary
  gridscout analyze 12345 2602 2603 --checkpoint --llm`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeLLM, "llm", false, "print the text summary used for scouting reports")
	analyzeCmd.Flags().BoolVar(&analyzeVerbose, "verbose", false, "with --llm, include game and round breakdowns")
	analyzeCmd.Flags().BoolVar(&analyzeCheckpoint, "checkpoint", false, "merge into the stored analysis for this player and save it")
	analyzeCmd.Flags().BoolVar(&analyzeRounds, "rounds", false, "print the per-round table")
	analyzeCmd.Flags().StringVar(&analyzeWindow, "window", "ALL", "only use series inside this window (WEEK, MONTH, 3_MONTHS, 6_MONTHS, YEAR, ALL)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	playerID := args[0]
	window, err := storage.ParseTimeWindow(analyzeWindow)
	if err != nil {
		return err
	}

	var (
		db       *storage.DB
		existing *model.PlayerAnalysis
	)
	if analyzeCheckpoint {
		db, err = openStore()
		if err != nil {
			return err
		}
		defer db.Close()
		existing, err = db.GetAnalysis(playerID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("load checkpoint: %w", err)
		}
	}

	a, err := analysePlayer(cmd, playerID, args[1:], window, existing)
	if err != nil {
		return err
	}

	if db != nil {
		if err := db.SaveAnalysis(a); err != nil {
			return fmt.Errorf("save checkpoint: %w", err)
		}
		cOK.Fprintf(os.Stderr, "Checkpoint saved: %d series\n", a.SeriesTrends.SeriesPlayed)
	}

	printAnalysis(a)
	return nil
}

// analysePlayer analyses each source on its own, releasing its events before
// the next one is read, then folds the partial analyses into existing (which
// may be nil) in series start order. Series already in existing, or started
// before its last event, are skipped.
func analysePlayer(cmd *cobra.Command, playerID string, sources []string, window storage.TimeWindow, existing *model.PlayerAnalysis) (*model.PlayerAnalysis, error) {
	paths, err := resolveSources(cmd.Context(), sources)
	if err != nil {
		return nil, err
	}
	since := storage.TimeWindowSince(window, now())

	seen := make(map[string]bool)
	if existing != nil {
		for _, id := range existing.SeriesIDs {
			seen[id] = true
		}
	}

	tmpl := `{{ green "Analysing:" }} {{ bar . "[" "#" "#" "." "]" }} {{ counters . }}`
	bar := pb.ProgressBarTemplate(tmpl).New(len(paths)).SetWriter(os.Stderr).Start()
	var parts []*model.PlayerAnalysis
	for _, p := range paths {
		bar.Increment()
		part, err := analyseSource(playerID, p, since, seen)
		if err != nil {
			bar.Finish()
			return nil, err
		}
		if part != nil {
			parts = append(parts, part)
		}
	}
	bar.Finish()

	acc, stale := foldAnalyses(existing, parts)
	for _, id := range stale {
		cWarn.Fprintf(os.Stderr, "  [skip] %s: older than the checkpoint, clear it to re-analyse\n", id)
	}
	if acc == nil {
		acc = aggregator.AnalysePlayerEvents(playerID, nil)
	}
	if acc.SeriesTrends.GamesPlayed == 0 {
		cWarn.Fprintf(os.Stderr, "No rounds found for player %s in %d series\n", playerID, len(paths))
	}
	return acc, nil
}

// analyseSource loads one event file and returns its partial analysis, or nil
// when the series is outside the window or already in seen.
func analyseSource(playerID, path string, since time.Time, seen map[string]bool) (*model.PlayerAnalysis, error) {
	m, stats, err := loadMatch(path)
	if err != nil {
		return nil, &aggregator.MatchError{SeriesID: seriesIDFromPath(path), Err: err}
	}
	if stats.Skipped > 0 {
		cWarn.Fprintf(os.Stderr, "  [warn] %s: skipped %d malformed lines\n", path, stats.Skipped)
	}
	if !since.IsZero() && m.Series.StartTime.Before(since) {
		logrus.WithField("series", m.Series.ID).Debug("series outside time window")
		return nil, nil
	}
	if seen[m.Series.ID] {
		cMuted.Fprintf(os.Stderr, "  [skip] %s: already in checkpoint\n", m.Series.ID)
		return nil, nil
	}
	seen[m.Series.ID] = true
	return aggregator.AnalyseMatch(playerID, m)
}

// foldAnalyses merges parts into existing oldest first. Parts starting before
// existing's last event would break trend order; their series ids are
// returned instead of being merged.
func foldAnalyses(existing *model.PlayerAnalysis, parts []*model.PlayerAnalysis) (*model.PlayerAnalysis, []string) {
	sort.SliceStable(parts, func(i, j int) bool { return parts[i].Range.Start < parts[j].Range.Start })

	var stale []string
	acc := existing
	for _, part := range parts {
		if len(part.GameTrends) == 0 {
			continue
		}
		if existing != nil && !existing.Range.IsZero() && part.Range.Start < existing.Range.End {
			stale = append(stale, strings.Join(part.SeriesIDs, ","))
			continue
		}
		acc = aggregator.MergePlayerAnalysis(acc, part)
	}
	return acc, stale
}

func printAnalysis(a *model.PlayerAnalysis) {
	if analyzeLLM {
		if analyzeVerbose {
			fmt.Fprintln(os.Stdout, report.FormatVerbose(a))
		} else {
			fmt.Fprintln(os.Stdout, report.FormatCompact(a))
		}
		return
	}

	report.PrintAnalysisHeader(os.Stdout, a)
	report.PrintSeriesTable(os.Stdout, a.SeriesTrends)
	fmt.Fprintln(os.Stdout)
	report.PrintGameTable(os.Stdout, a.GameTrends)
	if analyzeRounds {
		fmt.Fprintln(os.Stdout)
		report.PrintRoundTable(os.Stdout, a.RoundTrends)
	}
	fmt.Fprintln(os.Stdout)
	report.PrintPositioningTable(os.Stdout, a.PositioningTrends)
	fmt.Fprintln(os.Stdout)
	report.PrintTrendTable(os.Stdout, a.Trends)

	if obs := report.Observations(a); len(obs) > 0 {
		fmt.Fprintln(os.Stdout, "\nKey observations:")
		fmt.Fprintln(os.Stdout, "  - "+strings.Join(obs, "\n  - "))
	}
}
