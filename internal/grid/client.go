// Package grid provides a minimal client for the GRID file-download API.
package grid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pable/gridscout/internal/cache"
)

// DefaultBaseURL is the root endpoint for the GRID API.
const DefaultBaseURL = "https://api.grid.gg"

// ErrUnauthorized is returned when GRID rejects the API key.
var ErrUnauthorized = errors.New("grid: unauthorized, check grid.api_key")

var log = logrus.WithField("component", "grid")

// Client is a minimal GRID file-download client.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
}

// NewClient returns a GRID client authenticated with apiKey. c may be nil to
// disable caching of file listings.
func NewClient(apiKey, baseURL string, c cache.Cache, ttl time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   c,
		ttl:     ttl,
	}
}

// File is one entry of a series' downloadable files.
type File struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	FileName    string `json:"fileName"`
	FullURL     string `json:"fullURL"`
}

// Ready reports whether GRID has finished producing the file.
func (f File) Ready() bool {
	return strings.EqualFold(f.Status, "ready")
}

// get performs an authenticated GET and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("GET %s: HTTP %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: read body: %w", path, err)
	}
	return body, nil
}

// FileList returns the files GRID offers for a series. Listings are cached.
func (c *Client) FileList(ctx context.Context, seriesID string) ([]File, error) {
	path := "/file-download/list/" + seriesID
	body, err := cache.GetOrFetch(ctx, c.cache, "grid:files:"+seriesID, c.ttl, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, path)
	})
	if err != nil {
		return nil, err
	}

	var resp struct {
		Files []File `json:"files"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode file list for %s: %w", seriesID, err)
	}
	return resp.Files, nil
}

// DownloadEvents returns the zipped event stream of a series.
func (c *Client) DownloadEvents(ctx context.Context, seriesID string) ([]byte, error) {
	log.WithField("series", seriesID).Debug("downloading events")
	return c.get(ctx, "/file-download/events/grid/series/"+seriesID)
}
