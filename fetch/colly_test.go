package fetch

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

func newMockedFetcher(t *testing.T, transport *httpmock.MockTransport) *CollyFetcher {
	t.Helper()
	f, err := NewCollyFetcher("test-agent", 5*time.Second)
	if err != nil {
		t.Fatalf("NewCollyFetcher: %v", err)
	}
	f.collector.WithTransport(transport)
	return f
}

func TestCollyFetcherReturnsBody(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.com/page",
		httpmock.NewStringResponder(200, "<html><title>ok</title></html>"))

	f := newMockedFetcher(t, transport)
	page, err := f.Fetch(context.Background(), "http://example.com/page")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if page.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", page.StatusCode)
	}
	if !strings.Contains(page.HTML, "<title>ok</title>") {
		t.Fatalf("body not captured: %q", page.HTML)
	}
}

func TestCollyFetcherSendsUserAgent(t *testing.T) {
	transport := httpmock.NewMockTransport()
	var gotAgent string
	transport.RegisterResponder("GET", "http://example.com/",
		func(req *http.Request) (*http.Response, error) {
			gotAgent = req.Header.Get("User-Agent")
			return httpmock.NewStringResponse(200, "ok"), nil
		})

	f := newMockedFetcher(t, transport)
	if _, err := f.Fetch(context.Background(), "http://example.com/"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if gotAgent != "test-agent" {
		t.Fatalf("user agent = %q, want test-agent", gotAgent)
	}
}

func TestCollyFetcherClassifiesErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "not found", status: 404},
		{name: "forbidden", status: 403},
		{name: "server error", status: 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := httpmock.NewMockTransport()
			transport.RegisterResponder("GET", "http://example.com/err",
				httpmock.NewStringResponder(tt.status, "nope"))

			f := newMockedFetcher(t, transport)
			_, err := f.Fetch(context.Background(), "http://example.com/err")
			if err == nil {
				t.Fatalf("expected error for status %d", tt.status)
			}

			var statusErr ErrHTTPStatus
			if !errors.As(err, &statusErr) {
				t.Fatalf("error = %v, want ErrHTTPStatus", err)
			}
			if statusErr.Status != tt.status {
				t.Fatalf("status = %d, want %d", statusErr.Status, tt.status)
			}
			if got := ErrorLabel(err); got != "http_status" {
				t.Fatalf("label = %q, want http_status", got)
			}
		})
	}
}

func TestCollyFetcherCancelledContext(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.com/",
		httpmock.NewStringResponder(200, "ok"))

	f := newMockedFetcher(t, transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.Fetch(ctx, "http://example.com/"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestCollyFetcherSequentialFetchesResetState(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "http://example.com/first",
		httpmock.NewStringResponder(200, "first body"))
	transport.RegisterResponder("GET", "http://example.com/second",
		httpmock.NewStringResponder(500, "boom"))
	transport.RegisterResponder("GET", "http://example.com/third",
		httpmock.NewStringResponder(200, "third body"))

	f := newMockedFetcher(t, transport)
	ctx := context.Background()

	if page, err := f.Fetch(ctx, "http://example.com/first"); err != nil || page.HTML != "first body" {
		t.Fatalf("first fetch: page=%v err=%v", page, err)
	}
	if _, err := f.Fetch(ctx, "http://example.com/second"); err == nil {
		t.Fatalf("second fetch should fail")
	}
	page, err := f.Fetch(ctx, "http://example.com/third")
	if err != nil {
		t.Fatalf("third fetch: %v", err)
	}
	if page.HTML != "third body" {
		t.Fatalf("stale state leaked into third fetch: %q", page.HTML)
	}
}

func TestClassifyTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		label  string
	}{
		{name: "deadline", err: context.DeadlineExceeded, label: "timeout"},
		{name: "plain error", err: errors.New("boom"), label: "other"},
		{name: "error status", status: 503, label: "http_status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorLabel(Classify(tt.err, tt.status)); got != tt.label {
				t.Fatalf("label = %q, want %q", got, tt.label)
			}
		})
	}
}
