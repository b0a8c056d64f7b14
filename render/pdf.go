package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"vehicle-marketplace/utils"
)

// ErrNoChrome is returned when no Chrome/Chromium binary can be found.
var ErrNoChrome = errors.New("chrome binary not found")

const defaultPDFTimeout = 60 * time.Second

// PDFRenderer prints HTML documents to PDF through headless Chrome.
type PDFRenderer struct {
	chromeBin string
	timeout   time.Duration
	logger    *utils.Logger
}

// NewPDFRenderer creates a renderer. An empty chromeBin is looked up on PATH
// and in the usual install locations.
func NewPDFRenderer(chromeBin string, logger *utils.Logger) *PDFRenderer {
	return &PDFRenderer{
		chromeBin: FindChromeBinary(chromeBin),
		timeout:   defaultPDFTimeout,
		logger:    logger,
	}
}

// Available reports whether a browser binary was found.
func (r *PDFRenderer) Available() bool {
	return r.chromeBin != ""
}

// Render loads doc into a blank page and prints it as A4 with backgrounds.
func (r *PDFRenderer) Render(ctx context.Context, doc []byte) ([]byte, error) {
	if !r.Available() {
		return nil, ErrNoChrome
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.ExecPath(r.chromeBin),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// chromedp logs every unknown CDP event; keep it quiet.
	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancel()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	start := time.Now()
	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return fmt.Errorf("frame tree: %w", err)
			}
			return page.SetDocumentContent(tree.Frame.ID, string(doc)).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chromedp print: %w", err)
	}

	r.logger.Debug("rendered pdf", "bytes", len(pdf), "took", time.Since(start))
	return pdf, nil
}

// FindChromeBinary returns override when set, then $CHROME_BIN, then the first
// Chrome/Chromium found on PATH or in a well-known location. It returns "" when
// there is none.
func FindChromeBinary(override string) string {
	if override != "" {
		return override
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
