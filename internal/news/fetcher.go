package news

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultTimeout = 15 * time.Second
	maxFeedBytes   = 5 << 20
	fetchLimit     = 4
)

var ErrAllFeedsFailed = errors.New("all feeds failed")

// Fetcher downloads and parses feeds.
type Fetcher struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewFetcher returns a Fetcher using hc, or a client with a 15s timeout when hc is nil.
func NewFetcher(hc *http.Client) *Fetcher {
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	return &Fetcher{httpClient: hc, logger: slog.Default()}
}

// Fetch downloads one feed.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	items, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	for i := range items {
		items[i].Feed = url
	}
	return items, nil
}

// FetchAll fetches urls concurrently and concatenates their items in the
// order the urls were given. Failing feeds are logged and skipped; an error
// is returned only when every feed fails.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]Item, error) {
	if len(urls) == 0 {
		urls = []string{DefaultFeed}
	}

	results := make([][]Item, len(urls))
	errs := make([]error, len(urls))

	var g errgroup.Group
	g.SetLimit(fetchLimit)
	for i, url := range urls {
		g.Go(func() error {
			items, err := f.Fetch(ctx, url)
			if err != nil {
				f.logger.Warn("skipping feed", "url", url, "error", err)
				errs[i] = err
				return nil
			}
			results[i] = items
			return nil
		})
	}
	g.Wait()

	var all []Item
	failed := 0
	for i := range urls {
		if errs[i] != nil {
			failed++
			continue
		}
		all = append(all, results[i]...)
	}
	if failed == len(urls) {
		return nil, fmt.Errorf("%w: %w", ErrAllFeedsFailed, errors.Join(errs...))
	}
	return all, nil
}

// Latest returns at most limit items from FetchAll, newest first. Undated
// items follow the dated ones; ties keep feed order. A limit of zero or less
// means no limit.
func (f *Fetcher) Latest(ctx context.Context, urls []string, limit int) ([]Item, error) {
	items, err := f.FetchAll(ctx, urls)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(items, func(a, b Item) int {
		switch {
		case a.Published.IsZero() && b.Published.IsZero():
			return 0
		case a.Published.IsZero():
			return 1
		case b.Published.IsZero():
			return -1
		}
		return b.Published.Compare(a.Published)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
