package webpage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

const userAgent = `Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36`

// ChromeRenderer renders pages in headless Chrome so that client-side
// content is present in the returned HTML.
type ChromeRenderer struct {
	allocators chan context.Context
	cancels    []context.CancelFunc
	timeout    time.Duration
}

// NewChromeRenderer starts maxBrowsers allocators. Render blocks while all
// of them are busy.
func NewChromeRenderer(maxBrowsers int, pageLoadTimeout time.Duration) *ChromeRenderer {
	if maxBrowsers < 1 {
		maxBrowsers = 1
	}
	r := &ChromeRenderer{
		allocators: make(chan context.Context, maxBrowsers),
		timeout:    pageLoadTimeout,
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	for i := 0; i < maxBrowsers; i++ {
		allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)
		r.cancels = append(r.cancels, cancel)
		r.allocators <- allocCtx
	}
	return r
}

// Render navigates to url and returns the document's outer HTML.
func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	var allocCtx context.Context
	select {
	case allocCtx = <-r.allocators:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { r.allocators <- allocCtx }()

	// Create a new browser context from the allocator
	taskCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	}))
	defer cancel()

	// Create a timeout for the entire render task
	taskCtx, cancel = context.WithTimeout(taskCtx, r.timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	startTime := time.Now()
	var html string
	err := chromedp.Run(taskCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		slog.Error("Failed to render page", "url", url, "error", err)
		return "", err
	}

	slog.Info("Rendered page", "url", url, "bytes", len(html), "duration_ms", time.Since(startTime).Milliseconds())
	return html, nil
}

// Close shuts down every browser.
func (r *ChromeRenderer) Close() {
	for _, cancel := range r.cancels {
		cancel()
	}
}
