package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	dropForce     bool
	dropDownloads bool
)

var dropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Delete all stored reports and analysis checkpoints",
	Long: `Show what the report store holds, then wipe it with --force.

With the SQLite backend the database file and its WAL sidecars are removed.
With Postgres the tables are emptied and the schema is kept. Downloaded
series archives survive unless --downloads is given.`,
	Args: cobra.NoArgs,
	RunE: runDrop,
}

func init() {
	dropCmd.Flags().BoolVarP(&dropForce, "force", "f", false, "delete without asking for confirmation")
	dropCmd.Flags().BoolVar(&dropDownloads, "downloads", false, "also delete downloaded series archives in grid.dir")
}

func runDrop(cmd *cobra.Command, args []string) error {
	sqlite := cfg.Reports.Backend != "postgres"
	if sqlite {
		if _, err := os.Stat(dbPath); errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stdout, "No database at %s.\n", dbPath)
			return dropArchives()
		}
	}

	db, err := openStore()
	if err != nil {
		return err
	}
	reports, checkpoints, err := db.Counts()
	if err != nil {
		db.Close()
		return err
	}

	if !dropForce {
		db.Close()
		cWarn.Fprintf(os.Stderr, "This will delete %d reports and %d checkpoints from %s.\n",
			reports, checkpoints, storeName())
		if dropDownloads {
			cWarn.Fprintf(os.Stderr, "Downloaded archives in %s will be deleted too.\n", cfg.Grid.Dir)
		}
		fmt.Fprintln(os.Stderr, "Re-run with --force to confirm.")
		return nil
	}

	if sqlite {
		if err := db.Close(); err != nil {
			return err
		}
		freed, err := removeFiles(sqliteFiles(dbPath))
		if err != nil {
			return fmt.Errorf("remove database: %w", err)
		}
		cOK.Fprintf(os.Stdout, "Deleted %s (%s)\n", dbPath, humanize.Bytes(uint64(freed)))
	} else {
		defer db.Close()
		if err := db.Purge(); err != nil {
			return err
		}
		cOK.Fprintf(os.Stdout, "Purged %d reports and %d checkpoints from Postgres\n", reports, checkpoints)
	}
	return dropArchives()
}

// dropArchives removes downloaded archives when --downloads and --force are set.
func dropArchives() error {
	if !dropDownloads || !dropForce {
		return nil
	}
	archives, err := filepath.Glob(filepath.Join(cfg.Grid.Dir, "*.zip"))
	if err != nil {
		return err
	}
	freed, err := removeFiles(archives)
	if err != nil {
		return fmt.Errorf("remove archives: %w", err)
	}
	cOK.Fprintf(os.Stdout, "Deleted %d archives (%s)\n", len(archives), humanize.Bytes(uint64(freed)))
	return nil
}

func storeName() string {
	if cfg.Reports.Backend == "postgres" {
		return "the Postgres store"
	}
	return dbPath
}

// sqliteFiles lists the database file and whichever WAL sidecars exist.
func sqliteFiles(path string) []string {
	files := []string{path}
	for _, suffix := range []string{"-wal", "-shm"} {
		if _, err := os.Stat(path + suffix); err == nil {
			files = append(files, path+suffix)
		}
	}
	return files
}

// removeFiles deletes files and returns the bytes freed. Missing files are ignored.
func removeFiles(files []string) (int64, error) {
	var freed int64
	for _, f := range files {
		fi, err := os.Stat(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return freed, err
		}
		if err := os.Remove(f); err != nil {
			return freed, err
		}
		freed += fi.Size()
	}
	return freed, nil
}
