package cmd

import (
	"fmt"
	"os"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pable/gridscout/internal/grid"
)

// fetch command flags.
var (
	// fetchDir overrides grid.dir as the download directory.
	fetchDir string
	// fetchConcurrency overrides grid.concurrency.
	fetchConcurrency int
	// fetchList prints the files GRID offers instead of downloading.
	fetchList bool
)

// fetchCmd downloads series event archives from GRID.
var fetchCmd = &cobra.Command{
	Use:   "fetch <series-id>...",
	Short: "Download series event files from GRID",
	Long: `Downloads the event archive of each series from the GRID file-download API
into the local series directory. Series already downloaded are skipped.

Examples:
  # Three series with the configured concurrency
  gridscout fetch 2600 2601 2602

  # Show which files GRID has for a series
  gridscout fetch 2600 --list`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().StringVar(&fetchDir, "dir", "", "download directory (default grid.dir)")
	fetchCmd.Flags().IntVar(&fetchConcurrency, "concurrency", 0, "parallel downloads (default grid.concurrency)")
	fetchCmd.Flags().BoolVar(&fetchList, "list", false, "list available files instead of downloading")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client, release, err := newGridClient(ctx)
	if err != nil {
		return err
	}
	defer release()

	if fetchList {
		for _, id := range args {
			files, err := client.FileList(ctx, id)
			if err != nil {
				return fmt.Errorf("list files for %s: %w", id, err)
			}
			fmt.Fprintf(os.Stdout, "Series %s:\n", id)
			for _, f := range files {
				status := cOK.Sprint(f.Status)
				if !f.Ready() {
					status = cWarn.Sprint(f.Status)
				}
				fmt.Fprintf(os.Stdout, "  %-20s %-12s %s\n", f.ID, status, f.FileName)
			}
		}
		return nil
	}

	dir := fetchDir
	if dir == "" {
		dir = cfg.Grid.Dir
	}
	concurrency := fetchConcurrency
	if concurrency <= 0 {
		concurrency = cfg.Grid.Concurrency
	}

	tmpl := `{{ green "Fetching:" }} {{ bar . "[" "#" "#" "." "]" }} {{ counters . }} {{ etime . }}`
	bar := pb.ProgressBarTemplate(tmpl).New(len(args)).SetWriter(os.Stderr).Start()

	var mu sync.Mutex
	var total uint64
	results, err := client.FetchAll(ctx, args, dir, concurrency, func(res grid.FetchResult) {
		mu.Lock()
		total += uint64(res.Bytes)
		mu.Unlock()
		bar.Increment()
	})
	bar.Finish()
	if err != nil {
		return err
	}

	downloaded, skipped, failed := 0, 0, 0
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed++
			cError.Fprintf(os.Stderr, "  [error] %v\n", res.Err)
		case res.Skipped:
			skipped++
			cMuted.Fprintf(os.Stdout, "  [skip] %s: already downloaded\n", res.SeriesID)
		default:
			downloaded++
			fmt.Fprintf(os.Stdout, "  stored %s (%s)\n", res.Path, humanize.Bytes(uint64(res.Bytes)))
		}
	}

	fmt.Fprintf(os.Stdout, "\nDone: %d downloaded (%s), %d skipped, %d failed → %s\n",
		downloaded, humanize.Bytes(total), skipped, failed, dir)
	if failed > 0 {
		return fmt.Errorf("%d of %d series failed", failed, len(args))
	}
	return nil
}
