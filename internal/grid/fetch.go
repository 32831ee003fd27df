package grid

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel downloads when no limit is configured.
const DefaultConcurrency = 5

// FetchResult describes the outcome for one series.
type FetchResult struct {
	SeriesID string
	Path     string
	Bytes    int
	Skipped  bool // file already present
	Err      error
}

// EventsPath returns where the events archive of a series is stored in dir.
func EventsPath(dir, seriesID string) string {
	return filepath.Join(dir, seriesID+".zip")
}

// FetchAll downloads the events archive of every series into dir using at most
// concurrency parallel requests. A failed series does not stop the others; its
// error is reported in the result. onDone, if set, is called once per series
// and may be called from several goroutines. Results keep the order of ids.
func (c *Client) FetchAll(ctx context.Context, ids []string, dir string, concurrency int, onDone func(FetchResult)) ([]FetchResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	results := make([]FetchResult, len(ids))
	var g errgroup.Group
	g.SetLimit(concurrency)
	for i, id := range ids {
		g.Go(func() error {
			res := c.fetchOne(ctx, id, dir)
			results[i] = res
			if onDone != nil {
				onDone(res)
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, ctx.Err()
}

func (c *Client) fetchOne(ctx context.Context, id, dir string) FetchResult {
	res := FetchResult{SeriesID: id, Path: EventsPath(dir, id)}
	if _, err := os.Stat(res.Path); err == nil {
		res.Skipped = true
		return res
	}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	data, err := c.DownloadEvents(ctx, id)
	if err != nil {
		res.Err = fmt.Errorf("series %s: %w", id, err)
		return res
	}

	tmp := res.Path + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		res.Err = fmt.Errorf("series %s: write: %w", id, err)
		return res
	}
	if err := os.Rename(tmp, res.Path); err != nil {
		os.Remove(tmp)
		res.Err = fmt.Errorf("series %s: rename: %w", id, err)
		return res
	}
	res.Bytes = len(data)
	log.WithFields(logrus.Fields{"series": id, "bytes": res.Bytes}).Debug("stored events")
	return res
}
