// Package models defines the data structures shared by the crawl and
// conversion stages.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Heading is one document heading in source order.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Table holds the cell text of one HTML table, row by row.
type Table [][]string

// PageRecord is the structured extract of a single fetched page. It is
// created once at fetch time and never mutated afterwards.
type PageRecord struct {
	URL         string    `json:"url"`
	URLHash     string    `json:"url_hash"`
	Title       string    `json:"title"`
	TextContent string    `json:"text_content"`
	Headings    []Heading `json:"headings"`
	Tables      []Table   `json:"tables"`
	Links       []string  `json:"links"`
	HTMLFile    string    `json:"html_file,omitempty"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// URLHash returns the content-addressed key for a URL: the hex sha256 of
// the URL string. Equal URLs always produce equal hashes.
func URLHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}

// CrawlProgress is the durable checkpoint overwritten after every page.
type CrawlProgress struct {
	TotalPages  int      `json:"total_pages"`
	VisitedURLs []string `json:"visited_urls"`
	LastURL     string   `json:"last_url"`
}

// CrawlResult summarises a finished (or interrupted) crawl session.
type CrawlResult struct {
	Pages        []*PageRecord
	StartTime    time.Time
	EndTime      time.Time
	PageCount    int
	ErrorCount   int
	FailedURLs   []string
	ErrorsByType map[string]int
}
