package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	appLog "wallcal/internal/log"
)

// maxBodyBytes bounds a single ICS payload.
const maxBodyBytes = 8 << 20

// Source is one ICS import source.
type Source struct {
	// ID is an identifier used in logs.
	ID string
	// URL is an http(s) endpoint or a local file path.
	URL string
}

// FetchResult is the raw payload of one source.
type FetchResult struct {
	Source Source
	Body   []byte
}

// Fetcher loads ICS payloads. Nothing is cached; every call reads the
// source again.
type Fetcher struct {
	client *http.Client
}

// NewFetcher returns a Fetcher whose HTTP requests time out after timeout
// (15s when zero).
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// FetchAll fetches every source. Failures are logged and collected; the
// results only contain sources that produced a body.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(sources))
	var errs []error

	for _, src := range sources {
		res, err := f.FetchOne(ctx, src)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("ics fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// FetchOne reads a single source, over HTTP for http(s) URLs and from disk
// otherwise.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	if !isHTTP(src.URL) {
		body, err := os.ReadFile(src.URL)
		if err != nil {
			return FetchResult{}, err
		}
		appLog.Info("ics file read", "id", src.ID, "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	req.Header.Set("Accept", "text/calendar")

	appLog.Info("ics fetch start", "id", src.ID, "url", redactURL(src.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return FetchResult{}, fmt.Errorf("ics fetch %s: %s", redactURL(src.URL), resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return FetchResult{}, err
	}

	appLog.Info("ics fetch success", "id", src.ID, "url", redactURL(src.URL), "status", resp.StatusCode, "bytes", len(body))
	return FetchResult{Source: src, Body: body}, nil
}

func isHTTP(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// redactURL hides the path and query of a URL, which often carry private
// tokens for calendar feeds:
//
//	https://example.com/private.ics?token=abcd -> https://example.com/...(redacted)
//
// Local paths are returned unchanged.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return u
	}
	rest := u[i+3:]
	if j := strings.IndexByte(rest, '/'); j != -1 {
		rest = rest[:j]
	} else if j := strings.IndexByte(rest, '?'); j != -1 {
		rest = rest[:j]
	}
	return u[:i+3] + rest + redactedSuffix
}
