package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/gridscout/internal/report"
	"github.com/pable/gridscout/internal/storage"
)

var (
	reportsDelete          string
	reportsClearCheckpoint bool
)

var reportsCmd = &cobra.Command{
	Use:   "reports [player-id]",
	Short: "List stored scouting reports",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReports,
}

func init() {
	reportsCmd.Flags().StringVar(&reportsDelete, "delete", "", "delete the player's report for this window (requires player-id)")
	reportsCmd.Flags().BoolVar(&reportsClearCheckpoint, "clear-checkpoint", false, "delete the player's stored analysis checkpoint (requires player-id)")
}

func runReports(cmd *cobra.Command, args []string) error {
	var playerID string
	if len(args) == 1 {
		playerID = args[0]
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	if (reportsDelete != "" || reportsClearCheckpoint) && playerID == "" {
		return fmt.Errorf("--delete and --clear-checkpoint need a player id")
	}
	if reportsClearCheckpoint {
		if err := db.DeleteAnalysis(playerID); err != nil {
			return fmt.Errorf("delete checkpoint: %w", err)
		}
		cOK.Fprintf(os.Stdout, "Deleted analysis checkpoint for %s\n", playerID)
	}
	if reportsDelete != "" {
		w, err := storage.ParseTimeWindow(reportsDelete)
		if err != nil {
			return err
		}
		if err := db.DeleteReport(playerID, w); err != nil {
			return fmt.Errorf("delete report: %w", err)
		}
		cOK.Fprintf(os.Stdout, "Deleted %s report for %s\n", w, playerID)
	}
	if reportsDelete != "" || reportsClearCheckpoint {
		return nil
	}

	reports, err := db.ListReports(playerID)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Fprintln(os.Stdout, "No reports stored. Run 'gridscout scout' first.")
		return nil
	}
	report.PrintReportList(os.Stdout, reports)
	return nil
}
