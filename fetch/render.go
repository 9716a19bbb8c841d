package fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/chromedp/chromedp"
)

// RenderFetcher loads pages in a shared headless Chrome instance and
// captures the DOM after scripts have run. Use it for sites whose content
// only exists client-side.
type RenderFetcher struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	timeout       time.Duration
}

// NewRenderFetcher launches the browser allocator shared by all fetches.
func NewRenderFetcher(userAgent string, timeout time.Duration) (*RenderFetcher, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &RenderFetcher{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		timeout:       timeout,
	}, nil
}

// Fetch navigates a fresh tab to url, waits for the body to be ready and
// returns the rendered outer HTML.
func (f *RenderFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(f.browserCtx)
	defer cancel()

	timeoutCtx, timeoutCancel := context.WithTimeout(tabCtx, f.timeout)
	defer timeoutCancel()

	resp, err := chromedp.RunResponse(timeoutCtx, chromedp.Navigate(url))
	if err != nil {
		return nil, Classify(err, 0)
	}

	status := http.StatusOK
	if resp != nil {
		status = int(resp.Status)
	}
	if status >= http.StatusBadRequest {
		return &Page{StatusCode: status}, ErrHTTPStatus{Status: status}
	}

	var html string
	if err := chromedp.Run(timeoutCtx,
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	); err != nil {
		return nil, Classify(err, 0)
	}

	return &Page{HTML: html, StatusCode: status}, nil
}

// Close shuts the shared browser down.
func (f *RenderFetcher) Close() error {
	f.browserCancel()
	f.allocCancel()
	return nil
}
