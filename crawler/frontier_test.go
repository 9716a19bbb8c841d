package crawler

import (
	"fmt"
	"testing"

	"github.com/aluiziolira/go-scrape-to-json/config"
)

func newTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = "http://example.com"
	return cfg
}

func TestFrontierAdmitMarksVisited(t *testing.T) {
	f, err := NewFrontier(newTestConfig())
	if err != nil {
		t.Fatalf("NewFrontier: %v", err)
	}

	if !f.Admit("http://example.com/a", 0) {
		t.Fatalf("first admission should succeed")
	}
	if f.Admit("http://example.com/a", 0) {
		t.Fatalf("second admission of the same URL should fail")
	}
	if got := f.VisitedCount(); got != 1 {
		t.Fatalf("visited count = %d, want 1", got)
	}
}

func TestFrontierFragmentsCollapse(t *testing.T) {
	f, err := NewFrontier(newTestConfig())
	if err != nil {
		t.Fatalf("NewFrontier: %v", err)
	}

	if !f.Admit("http://example.com/page#top", 0) {
		t.Fatalf("first variant should be admitted")
	}
	if f.Admit("http://example.com/page#bottom", 0) {
		t.Fatalf("fragment variant should be rejected as a duplicate")
	}
	if f.Admit("http://example.com/page", 0) {
		t.Fatalf("bare URL should be rejected as a duplicate")
	}
}

func TestFrontierAdmissionFilters(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		url    string
		depth  int
		want   bool
	}{
		{
			name: "external host rejected",
			url:  "http://other.com/page", depth: 1, want: false,
		},
		{
			name: "external host allowed when cross-domain enabled",
			mutate: func(cfg *config.Config) {
				cfg.SameDomainOnly = false
			},
			url: "http://other.com/page", depth: 1, want: true,
		},
		{
			name: "exclude pattern rejected",
			mutate: func(cfg *config.Config) {
				cfg.ExcludePatterns = []string{"/admin"}
			},
			url: "http://example.com/admin/users", depth: 1, want: false,
		},
		{
			name: "include pattern required",
			mutate: func(cfg *config.Config) {
				cfg.IncludePatterns = []string{"/docs"}
			},
			url: "http://example.com/blog/post", depth: 1, want: false,
		},
		{
			name: "include pattern matched",
			mutate: func(cfg *config.Config) {
				cfg.IncludePatterns = []string{"/docs"}
			},
			url: "http://example.com/docs/intro", depth: 1, want: true,
		},
		{
			name: "binary extension rejected",
			url:  "http://example.com/report.pdf", depth: 1, want: false,
		},
		{
			name: "extension check is case-insensitive",
			url:  "http://example.com/photo.PNG", depth: 1, want: false,
		},
		{
			name: "depth beyond limit rejected",
			url:  "http://example.com/deep", depth: 4, want: false,
		},
		{
			name: "depth at limit admitted",
			url:  "http://example.com/edge", depth: 3, want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newTestConfig()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			f, err := NewFrontier(cfg)
			if err != nil {
				t.Fatalf("NewFrontier: %v", err)
			}
			if got := f.Admit(tt.url, tt.depth); got != tt.want {
				t.Fatalf("Admit(%q, %d) = %v, want %v", tt.url, tt.depth, got, tt.want)
			}
		})
	}
}

func TestFrontierBudgetBoundsVisited(t *testing.T) {
	cfg := newTestConfig()
	cfg.MaxPages = 3

	f, err := NewFrontier(cfg)
	if err != nil {
		t.Fatalf("NewFrontier: %v", err)
	}

	admitted := 0
	for i := 0; i < 10; i++ {
		if f.Admit(fmt.Sprintf("http://example.com/page/%d", i), 1) {
			admitted++
		}
	}

	if admitted != 3 {
		t.Fatalf("admitted = %d, want 3", admitted)
	}
	if got := f.VisitedCount(); got != 3 {
		t.Fatalf("visited count = %d, want 3", got)
	}
}

func TestFrontierVisitedOrderPreserved(t *testing.T) {
	f, err := NewFrontier(newTestConfig())
	if err != nil {
		t.Fatalf("NewFrontier: %v", err)
	}

	urls := []string{
		"http://example.com/",
		"http://example.com/a",
		"http://example.com/b",
	}
	for _, u := range urls {
		if !f.Admit(u, 1) {
			t.Fatalf("Admit(%q) failed", u)
		}
	}

	got := f.VisitedURLs()
	if len(got) != len(urls) {
		t.Fatalf("visited urls = %d, want %d", len(got), len(urls))
	}
	for i, u := range urls {
		if got[i] != u {
			t.Fatalf("visited[%d] = %q, want %q", i, got[i], u)
		}
	}
}

func TestFrontierRejectedURLsDoNotConsumeBudget(t *testing.T) {
	cfg := newTestConfig()
	cfg.MaxPages = 2

	f, err := NewFrontier(cfg)
	if err != nil {
		t.Fatalf("NewFrontier: %v", err)
	}

	for i := 0; i < 5; i++ {
		if f.Admit(fmt.Sprintf("http://other.com/%d", i), 1) {
			t.Fatalf("external URL should not be admitted")
		}
	}

	if !f.Admit("http://example.com/a", 1) {
		t.Fatalf("budget should be untouched by rejected URLs")
	}
	if !f.Admit("http://example.com/b", 1) {
		t.Fatalf("budget should allow a second page")
	}
	if f.Admit("http://example.com/c", 1) {
		t.Fatalf("budget of 2 should be exhausted")
	}
}
