package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"osumap/dotosu"
	"osumap/logging"
)

const defaultMapURL = "https://osu.ppy.sh/osu/%d"

type fetcher struct {
	client   *http.Client
	throttle *throttle
	urlFmt   string
	retries  int
	backoff  time.Duration
}

func newFetcher(th *throttle) *fetcher {
	return &fetcher{
		client:   &http.Client{Timeout: time.Minute * 2},
		throttle: th,
		urlFmt:   defaultMapURL,
		retries:  3,
		backoff:  time.Minute,
	}
}

// Fetch downloads the .osu file of one difficulty and checks that it decodes.
func (f *fetcher) Fetch(ctx context.Context, id int) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		body, status, err := f.get(ctx, id)
		if err != nil {
			return nil, err
		}
		if status == http.StatusTooManyRequests && attempt < f.retries {
			logging.Warn("rate limited", "id", id, "wait", f.backoff)
			select {
			case <-time.After(f.backoff):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("fetch map %d: status %d", id, status)
		}

		bm, err := dotosu.Decode(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("map %d: %w", id, err)
		}
		if err := bm.Validate(); err != nil {
			return nil, fmt.Errorf("map %d: %w", id, err)
		}
		return body, nil
	}
}

func (f *fetcher) get(ctx context.Context, id int) ([]byte, int, error) {
	done, err := f.throttle.Acquire(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer done()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf(f.urlFmt, id), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("User-Agent", "osumap")

	logging.Debug("downloading map", "id", id)
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.StatusCode, nil
}

// FetchAll downloads ids into dir as <id>.osu, up to the throttle's
// concurrency. It returns the written paths and the first error.
func (f *fetcher) FetchAll(ctx context.Context, ids []int, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, len(ids))
	errs := make([]error, len(ids))
	RunEach(len(ids), len(ids), func(i int) {
		id := ids[i]
		data, err := f.Fetch(ctx, id)
		if err != nil {
			errs[i] = err
			return
		}
		p := filepath.Join(dir, fmt.Sprintf("%d.osu", id))
		if err := os.WriteFile(p, data, 0o644); err != nil {
			errs[i] = err
			return
		}
		paths[i] = p
		logging.Info("downloaded map", "id", id, "path", p)
	})

	var written []string
	var firstErr error
	for i := range ids {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		written = append(written, paths[i])
	}
	return written, firstErr
}
