// Package crawler implements the URL frontier and the depth-bounded
// traversal that turns a seed URL into persisted page records.
package crawler

import (
	"fmt"
	"net/url"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-to-json/config"
)

// skipExtensions are path suffixes that never point at crawlable documents.
var skipExtensions = []string{".pdf", ".jpg", ".png", ".gif", ".css", ".js", ".zip", ".exe"}

const filterMemoSize = 4096

// Frontier owns the visited set and the admission policy. A URL enters the
// visited set at most once, in the same step that admits it, so duplicate
// fetches are impossible even with overlapping link extraction.
type Frontier struct {
	baseHost        string
	pageBudget      int
	depthLimit      int
	sameDomainOnly  bool
	includePatterns []string
	excludePatterns []string

	mu           sync.Mutex
	visited      map[string]struct{}
	visitedOrder []string

	// Static filter verdicts (domain/pattern/extension) are pure per URL,
	// and navigation links repeat on every page; the memo skips
	// re-matching them. Visited and budget checks stay exact.
	filterMemo *lru.Cache[string, bool]
}

// NewFrontier builds a frontier for one crawl session.
func NewFrontier(cfg *config.Config) (*Frontier, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	memo, err := lru.New[string, bool](filterMemoSize)
	if err != nil {
		return nil, fmt.Errorf("create filter memo: %w", err)
	}

	return &Frontier{
		baseHost:        base.Host,
		pageBudget:      cfg.MaxPages,
		depthLimit:      cfg.MaxDepth,
		sameDomainOnly:  cfg.SameDomainOnly,
		includePatterns: cfg.IncludePatterns,
		excludePatterns: cfg.ExcludePatterns,
		visited:         make(map[string]struct{}),
		filterMemo:      memo,
	}, nil
}

// Canonicalize normalizes a URL for admission: parse and drop the fragment.
func Canonicalize(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	u.Fragment = ""
	return u.String(), nil
}

// Admit decides whether rawURL at depth is eligible for fetching. On
// admission the URL is immediately marked visited; a second call for the
// same URL always returns false.
func (f *Frontier) Admit(rawURL string, depth int) bool {
	canonical, err := Canonicalize(rawURL)
	if err != nil {
		return false
	}

	if f.rejectedByFilters(canonical) {
		return false
	}
	if depth > f.depthLimit {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[canonical]; ok {
		return false
	}
	if len(f.visited) >= f.pageBudget {
		return false
	}

	f.visited[canonical] = struct{}{}
	f.visitedOrder = append(f.visitedOrder, canonical)
	return true
}

// rejectedByFilters evaluates the stateless admission checks, memoised per
// canonical URL.
func (f *Frontier) rejectedByFilters(canonical string) bool {
	if rejected, ok := f.filterMemo.Get(canonical); ok {
		return rejected
	}

	rejected := f.filterVerdict(canonical)
	f.filterMemo.Add(canonical, rejected)
	return rejected
}

func (f *Frontier) filterVerdict(canonical string) bool {
	u, err := url.Parse(canonical)
	if err != nil {
		return true
	}

	if f.sameDomainOnly && u.Host != f.baseHost {
		return true
	}

	for _, pattern := range f.excludePatterns {
		if strings.Contains(canonical, pattern) {
			return true
		}
	}

	if len(f.includePatterns) > 0 {
		matched := false
		for _, pattern := range f.includePatterns {
			if strings.Contains(canonical, pattern) {
				matched = true
				break
			}
		}
		if !matched {
			return true
		}
	}

	path := strings.ToLower(u.Path)
	for _, ext := range skipExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}

	return false
}

// VisitedCount reports how many URLs have been admitted.
func (f *Frontier) VisitedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

// VisitedURLs returns the admitted URLs in admission order.
func (f *Frontier) VisitedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.visitedOrder))
	copy(out, f.visitedOrder)
	return out
}
