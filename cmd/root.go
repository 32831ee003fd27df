package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/gridscout/internal/config"
	"github.com/pable/gridscout/internal/logging"
)

var (
	configPath string
	dbPath     string
	logLevel   string
	logFormat  string

	// cfg is loaded once per invocation, before any command runs.
	cfg *config.Config

	now = time.Now
)

var (
	cWarn  = color.New(color.FgYellow)
	cError = color.New(color.FgRed, color.Bold)
	cOK    = color.New(color.FgGreen)
	cMuted = color.New(color.Faint)
)

var rootCmd = &cobra.Command{
	Use:   "gridscout",
	Short: "Valorant player analytics from GRID event streams",
	Long: `Reconstruct games and rounds from GRID series event files, analyse a
player's combat and positioning over time, and produce scouting reports.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		cError.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", config.DefaultPath(), "path to config file")
	pf.StringVar(&dbPath, "db", "", "path to SQLite database (default ~/.gridscout/gridscout.db)")
	pf.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "text", "log format (text or json)")

	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(segmentsCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(scoutCmd)
	rootCmd.AddCommand(reportsCmd)
	rootCmd.AddCommand(dropCmd)
}

// loadConfig resolves the configuration and sets up logging.
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	if err := logging.Setup(c.Log.Level, c.Log.Format); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	cfg = c
	dbPath = c.DB
	return nil
}
