package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pable/gridscout/internal/report"
	"github.com/pable/gridscout/internal/scout"
	"github.com/pable/gridscout/internal/storage"
)

var (
	scoutWindow  string
	scoutCached  bool
	scoutRender  bool
	scoutVerbose bool
)

var scoutCmd = &cobra.Command{
	Use:   "scout <player-id> [file-or-series]...",
	Short: "Generate an AI scouting report for a player (requires an Anthropic API key)",
	Long: `Analyse the player over the given series, send the summary to the Anthropic
Messages API and stream back a scouting report with strengths, weaknesses and
an overview. Reports are stored per player and time window.

Examples:
  gridscout scout 12345 2600 2601 2602 --window MONTH
  gridscout scout 12345 --cached --window MONTH --render`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScout,
}

func init() {
	scoutCmd.Flags().StringVar(&scoutWindow, "window", "ALL", "time window (WEEK, MONTH, 3_MONTHS, 6_MONTHS, YEAR, ALL)")
	scoutCmd.Flags().BoolVar(&scoutCached, "cached", false, "print the stored report for this player and window if there is one")
	scoutCmd.Flags().BoolVar(&scoutRender, "render", false, "render the report as markdown when done instead of streaming raw text")
	scoutCmd.Flags().BoolVar(&scoutVerbose, "verbose", false, "send game and round breakdowns along with the summary")
}

func runScout(cmd *cobra.Command, args []string) error {
	playerID, sources := args[0], args[1:]
	window, err := storage.ParseTimeWindow(scoutWindow)
	if err != nil {
		return err
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if scoutCached {
		stored, err := db.GetReport(playerID, window)
		switch {
		case err == nil:
			cMuted.Fprintf(os.Stderr, "Stored report from %s (%s, prompt %s)\n",
				stored.CreatedAt.Format("2006-01-02 15:04"), stored.Model, stored.PromptVersion)
			return printReport(stored.Text)
		case !errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("load report: %w", err)
		}
		cMuted.Fprintf(os.Stderr, "No stored %s report for %s\n", window, playerID)
	}
	if len(sources) == 0 {
		return errors.New("no series given: pass event files or series ids to analyse")
	}

	a, err := analysePlayer(cmd, playerID, sources, window, nil)
	if err != nil {
		return err
	}
	if a.SeriesTrends.GamesPlayed == 0 {
		return fmt.Errorf("no games with data for player %s", playerID)
	}

	client, err := scout.NewClient(cfg.Anthropic.APIKey, cfg.Anthropic.Model)
	if err != nil {
		return err
	}

	data := report.FormatCompact(a)
	if scoutVerbose {
		data = report.FormatVerbose(a)
	}

	fmt.Fprintln(os.Stdout, "\n─── Scouting Report ─────────────────────────────────")
	var onChunk func(string)
	if !scoutRender {
		onChunk = func(s string) { fmt.Fprint(os.Stdout, s) }
	}
	text, err := client.Stream(cmd.Context(), scout.Request{
		PlayerData: data,
		PlayerID:   a.PlayerID,
		PlayerName: a.PlayerName,
		Timestamp:  now().UTC(),
	}, onChunk)
	if err != nil {
		return err
	}
	if scoutRender {
		if err := printReport(text); err != nil {
			return err
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	parsed := scout.ParseResponse(text)
	if len(parsed.Strengths) == 0 && len(parsed.Weaknesses) == 0 {
		cWarn.Fprintln(os.Stderr, "  [warn] report has no STRENGTHS/WEAKNESSES bullets")
	}

	r := &storage.Report{
		PlayerID:      playerID,
		TimeWindow:    window,
		Text:          text,
		Model:         client.Model(),
		PromptVersion: scout.PromptVersion,
		SeriesCount:   a.SeriesTrends.SeriesPlayed,
	}
	if !a.Range.IsZero() {
		r.LastSeriesDate = time.UnixMilli(a.Range.End)
	}
	if err := db.SaveReport(r); err != nil {
		return err
	}
	cOK.Fprintf(os.Stderr, "Saved report %s (%d strengths, %d weaknesses)\n",
		r.ID, len(parsed.Strengths), len(parsed.Weaknesses))
	return nil
}

// printReport writes a report to stdout, rendered as markdown with --render.
func printReport(text string) error {
	if !scoutRender {
		fmt.Fprintln(os.Stdout, text)
		return nil
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fmt.Errorf("markdown renderer: %w", err)
	}
	out, err := r.Render(reportMarkdown(text))
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	fmt.Fprint(os.Stdout, out)
	return nil
}

// reportMarkdown turns section headers into headings and • bullets into list items.
func reportMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.EqualFold(trimmed, "STRENGTHS:"),
			strings.EqualFold(trimmed, "WEAKNESSES:"),
			strings.EqualFold(trimmed, "OVERVIEW:"):
			lines[i] = "## " + strings.TrimSuffix(trimmed, ":")
		case strings.HasPrefix(trimmed, "•"):
			lines[i] = "- " + strings.TrimSpace(strings.TrimPrefix(trimmed, "•"))
		}
	}
	return strings.Join(lines, "\n")
}
