package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-to-json/config"
	"github.com/aluiziolira/go-scrape-to-json/extract"
	"github.com/aluiziolira/go-scrape-to-json/fetch"
	"github.com/aluiziolira/go-scrape-to-json/models"
	"github.com/aluiziolira/go-scrape-to-json/store"
)

// Crawler performs a sequential, depth-first traversal from the seed URL.
// Pages are persisted as they arrive: raw markup per page, plus a progress
// checkpoint overwritten after every successful fetch.
type Crawler struct {
	cfg      *config.Config
	fetcher  fetch.Fetcher
	frontier *Frontier
	store    *store.Store
	Metrics  *Metrics

	pages        []*models.PageRecord
	errorCount   int
	failedURLs   []string
	errorsByType map[string]int
}

// New builds a crawler for one session.
func New(cfg *config.Config, fetcher fetch.Fetcher, st *store.Store) (*Crawler, error) {
	frontier, err := NewFrontier(cfg)
	if err != nil {
		return nil, err
	}

	return &Crawler{
		cfg:          cfg,
		fetcher:      fetcher,
		frontier:     frontier,
		store:        st,
		Metrics:      NewMetrics(),
		errorsByType: make(map[string]int),
	}, nil
}

// Run crawls from the configured seed until no admissible links remain, the
// page budget or depth limit is exhausted, or ctx is cancelled. The partial
// result of an interrupted crawl is always persisted and loadable.
func (c *Crawler) Run(ctx context.Context) (*models.CrawlResult, error) {
	start := time.Now()

	slog.Info("starting crawl",
		slog.String("base_url", c.cfg.BaseURL),
		slog.Int("max_depth", c.cfg.MaxDepth),
		slog.Int("max_pages", c.cfg.MaxPages),
		slog.Bool("same_domain_only", c.cfg.SameDomainOnly),
	)

	if c.frontier.Admit(c.cfg.BaseURL, 0) {
		seed, err := Canonicalize(c.cfg.BaseURL)
		if err == nil {
			c.visit(ctx, seed, 0)
		}
	} else {
		slog.Warn("seed url rejected by admission policy", slog.String("url", c.cfg.BaseURL))
	}

	if err := c.store.SavePages(c.pages); err != nil {
		return nil, err
	}

	result := &models.CrawlResult{
		Pages:        c.pages,
		StartTime:    start,
		EndTime:      time.Now(),
		PageCount:    len(c.pages),
		ErrorCount:   c.errorCount,
		FailedURLs:   c.snapshotFailedURLs(),
		ErrorsByType: c.snapshotErrors(),
	}

	slog.Info("crawl complete",
		slog.Int("pages", result.PageCount),
		slog.Int("errors", result.ErrorCount),
		slog.Duration("duration", result.EndTime.Sub(start)),
	)

	return result, nil
}

// visit fetches one admitted URL and recurses into its admissible links.
// Fetch failures prune the branch without aborting the crawl.
func (c *Crawler) visit(ctx context.Context, pageURL string, depth int) {
	if ctx.Err() != nil {
		return
	}

	slog.Debug("fetching page", slog.String("url", pageURL), slog.Int("depth", depth))

	fetchStart := time.Now()
	page, err := c.fetcher.Fetch(ctx, pageURL)
	c.Metrics.ObserveFetch(time.Since(fetchStart))
	if err != nil {
		c.recordFailure(pageURL, err)
		return
	}

	htmlFile, err := c.store.SaveHTML(models.URLHash(pageURL), page.HTML)
	if err != nil {
		c.recordFailure(pageURL, err)
		return
	}

	record := extract.Extract(pageURL, page.HTML, time.Now())
	record.HTMLFile = htmlFile
	c.pages = append(c.pages, record)
	c.Metrics.IncPages()
	c.Metrics.AddLinks(len(record.Links))

	if err := c.checkpoint(pageURL); err != nil {
		slog.Error("progress checkpoint failed", slog.String("url", pageURL), slog.Any("error", err))
	}

	slog.Info("crawled page",
		slog.String("url", pageURL),
		slog.Int("depth", depth),
		slog.Int("pages", len(c.pages)),
		slog.Int("max_pages", c.cfg.MaxPages),
		slog.Int("links", len(record.Links)),
	)

	if depth >= c.cfg.MaxDepth {
		return
	}

	for _, link := range record.Links {
		if !c.frontier.Admit(link, depth+1) {
			c.Metrics.IncSkipped()
			continue
		}
		canonical, err := Canonicalize(link)
		if err != nil {
			continue
		}
		if !c.politenessSleep(ctx) {
			return
		}
		c.visit(ctx, canonical, depth+1)
	}
}

// politenessSleep waits the configured inter-request delay. It reports
// false if ctx was cancelled while waiting.
func (c *Crawler) politenessSleep(ctx context.Context) bool {
	if c.cfg.Delay <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(c.cfg.Delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Crawler) checkpoint(lastURL string) error {
	return c.store.SaveProgress(models.CrawlProgress{
		TotalPages:  len(c.pages),
		VisitedURLs: c.frontier.VisitedURLs(),
		LastURL:     lastURL,
	})
}

func (c *Crawler) recordFailure(pageURL string, err error) {
	c.errorCount++
	c.failedURLs = append(c.failedURLs, pageURL)
	label := fetch.ErrorLabel(err)
	c.errorsByType[label]++
	c.Metrics.IncError(label)
	slog.Error("fetch failed",
		slog.String("url", pageURL),
		slog.String("category", label),
		slog.Any("error", err),
	)
}

func (c *Crawler) snapshotFailedURLs() []string {
	out := make([]string, len(c.failedURLs))
	copy(out, c.failedURLs)
	return out
}

func (c *Crawler) snapshotErrors() map[string]int {
	out := make(map[string]int, len(c.errorsByType))
	for k, v := range c.errorsByType {
		out[k] = v
	}
	return out
}
