package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pable/gridscout/internal/aggregator"
	"github.com/pable/gridscout/internal/cache"
	"github.com/pable/gridscout/internal/grid"
	"github.com/pable/gridscout/internal/model"
	"github.com/pable/gridscout/internal/parser"
	"github.com/pable/gridscout/internal/storage"
)

// openStore opens the configured report store.
func openStore() (*storage.DB, error) {
	if cfg.Reports.Backend == "postgres" {
		db, err := storage.OpenPostgres(cfg.Reports.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return db, nil
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}

// newCache builds the configured cache. The returned func releases it.
func newCache(ctx context.Context) (cache.Cache, func(), error) {
	if cfg.Cache.Backend == "redis" {
		r, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	}
	return cache.NewMemory(), func() {}, nil
}

// newGridClient returns a GRID client wired to the configured cache.
func newGridClient(ctx context.Context) (*grid.Client, func(), error) {
	if cfg.Grid.APIKey == "" {
		return nil, nil, errors.New("no GRID API key: set grid.api_key or GRIDSCOUT_GRID_API_KEY")
	}
	c, release, err := newCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	return grid.NewClient(cfg.Grid.APIKey, cfg.Grid.BaseURL, c, cfg.Cache.TTL), release, nil
}

// loadMatch reads and flattens one event file. The series id comes from the
// records, falling back to the file name.
func loadMatch(path string) (model.MatchEvents, parser.ReadStats, error) {
	records, stats, err := parser.ReadEventsFile(path)
	if err != nil {
		return model.MatchEvents{}, stats, err
	}

	series := model.Series{ID: seriesIDFromPath(path)}
	for _, r := range records {
		if r.SeriesID != "" {
			series.ID = r.SeriesID
			break
		}
	}
	if len(records) > 0 {
		series.StartTime = records[0].OccurredAt
		for _, r := range records[1:] {
			if r.OccurredAt.Before(series.StartTime) {
				series.StartTime = r.OccurredAt
			}
		}
	}

	logrus.WithFields(logrus.Fields{
		"file":    path,
		"series":  series.ID,
		"records": stats.Records,
		"skipped": stats.Skipped,
	}).Debug("loaded event file")

	return model.MatchEvents{Series: series, Events: parser.Flatten(records)}, stats, nil
}

func seriesIDFromPath(path string) string {
	base := filepath.Base(path)
	for _, ext := range []string{".zip", ".zst", ".jsonl"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// resolveSources maps each argument to a local event file. Arguments that are
// not existing files are treated as GRID series ids: they resolve to the
// archive in grid.dir, which is downloaded first when missing.
func resolveSources(ctx context.Context, args []string) ([]string, error) {
	paths := make([]string, len(args))
	var missing []string
	for i, arg := range args {
		if fi, err := os.Stat(arg); err == nil && !fi.IsDir() {
			paths[i] = arg
			continue
		}
		paths[i] = grid.EventsPath(cfg.Grid.Dir, arg)
		if _, err := os.Stat(paths[i]); err != nil {
			missing = append(missing, arg)
		}
	}
	if len(missing) == 0 {
		return paths, nil
	}

	client, release, err := newGridClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%d series not found locally: %w", len(missing), err)
	}
	defer release()

	cMuted.Fprintf(os.Stderr, "Downloading %d series from GRID...\n", len(missing))
	results, err := client.FetchAll(ctx, missing, cfg.Grid.Dir, cfg.Grid.Concurrency, nil)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.Err != nil {
			return nil, &aggregator.MatchError{SeriesID: res.SeriesID, Err: res.Err}
		}
	}
	return paths, nil
}
