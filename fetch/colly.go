package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher loads pages over plain HTTP through a colly collector.
// Fetches are strictly sequential; the mutex keeps the capture fields
// coherent if a future caller ever overlaps calls.
type CollyFetcher struct {
	collector *colly.Collector

	mu     sync.Mutex
	html   string
	status int
	err    error
}

// NewCollyFetcher builds an HTTP fetcher with the given client header and
// per-request timeout.
func NewCollyFetcher(userAgent string, timeout time.Duration) (*CollyFetcher, error) {
	if userAgent == "" {
		return nil, fmt.Errorf("user agent cannot be empty")
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}

	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
	)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	f := &CollyFetcher{collector: collector}

	collector.OnResponse(func(r *colly.Response) {
		f.html = string(r.Body)
		f.status = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, err error) {
		f.err = err
		if r != nil {
			f.status = r.StatusCode
		}
	})

	return f, nil
}

// Fetch loads url and returns its body and status. HTTP statuses >= 400 are
// reported as ErrHTTPStatus alongside the page so callers can prune the
// branch without losing the status.
func (f *CollyFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.html = ""
	f.status = 0
	f.err = nil

	if err := f.collector.Visit(url); err != nil {
		f.collector.Wait()
		return nil, Classify(err, f.status)
	}
	f.collector.Wait()

	if f.err != nil {
		return nil, Classify(f.err, f.status)
	}
	if f.status >= http.StatusBadRequest {
		return &Page{HTML: f.html, StatusCode: f.status}, ErrHTTPStatus{Status: f.status}
	}
	return &Page{HTML: f.html, StatusCode: f.status}, nil
}

// Close satisfies Fetcher; the collector holds no resources to release.
func (f *CollyFetcher) Close() error {
	return nil
}
