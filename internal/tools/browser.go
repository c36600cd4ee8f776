package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"
	"github.com/microcosm-cc/bluemonday"

	"github.com/rahul/sutra/internal/payload"
)

// BrowserTool renders script-heavy pages through headless Chrome and returns
// the page text after web-content cleaning. For static pages the scraper
// tool is cheaper; this one exists for sites that need JavaScript to render.
type BrowserTool struct {
	Timeout time.Duration

	// Diag receives cleaning diagnostics; optional.
	Diag DiagnosticSink
}

func NewBrowserTool() *BrowserTool {
	return &BrowserTool{Timeout: 60 * time.Second}
}

func (b *BrowserTool) Name() string {
	return "browser"
}

func (b *BrowserTool) Description() string {
	return "Render a JavaScript-heavy webpage in a headless browser and return its cleaned text content."
}

func (b *BrowserTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to render",
			},
			"wait_seconds": map[string]any{
				"type":        "integer",
				"description": "Extra seconds to wait after load for scripts to settle (default 0)",
			},
		},
		"required": []string{"url"},
	}
}

func (b *BrowserTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		URL         string `json:"url"`
		WaitSeconds int    `json:"wait_seconds"`
	}

	if err := json.Unmarshal([]byte(input), &args); err != nil {
		return "", fmt.Errorf("invalid input: %v", err)
	}
	if args.URL == "" {
		return "", fmt.Errorf("url is required")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	actionCtx, cancel := context.WithTimeout(browserCtx, b.Timeout)
	defer cancel()

	actions := []chromedp.Action{chromedp.Navigate(args.URL)}
	if args.WaitSeconds > 0 {
		actions = append(actions, chromedp.Sleep(time.Duration(args.WaitSeconds)*time.Second))
	}

	var html string
	actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
		node, err := dom.GetDocument().Do(ctx)
		if err != nil {
			return err
		}
		html, err = dom.GetOuterHTML().WithNodeID(node.NodeID).Do(ctx)
		return err
	}))

	if err := chromedp.Run(actionCtx, actions...); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", args.URL, err)
	}

	text := bluemonday.StrictPolicy().Sanitize(html)
	cleaned, diag := payload.ProcessWebContent(text)
	if diag != nil {
		if b.Diag != nil {
			b.Diag.LogDiagnostic("browser", fmt.Sprintf("%s: %s", args.URL, diag))
		} else {
			log.Printf("browser: %s: %s", args.URL, diag)
		}
	}

	if len(cleaned) > 50000 {
		cleaned = cleaned[:50000] + "\n... (truncated)"
	}
	return cleaned, nil
}
