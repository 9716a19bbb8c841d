// Package fetch retrieves rendered or raw page markup for the crawler.
package fetch

import "context"

// Page is the outcome of one successful page load.
type Page struct {
	HTML       string
	StatusCode int
}

// Fetcher loads a single URL and returns its markup and HTTP status.
// Implementations must set an identifying client header and bound each
// fetch with the configured timeout.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
	Close() error
}
