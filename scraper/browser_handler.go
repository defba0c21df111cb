package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/playwright-community/playwright-go"

	"powderlines/models"
)

const (
	pageLoadTimeoutMs = 60000
	statusPollTries   = 20
	statusPollDelayMs = 500
)

// BrowserHandler drives a headless browser to load the resort page and
// pull the vendor-global status object out of it once page scripts have
// populated it.
type BrowserHandler struct {
	resort      *models.Resort
	pw          *playwright.Playwright
	browser     playwright.Browser
	mu          sync.Mutex
	initialized bool
}

func NewBrowserHandler(r *models.Resort) *BrowserHandler {
	return &BrowserHandler{resort: r}
}

func (h *BrowserHandler) ID() string {
	return h.resort.Key
}

func (h *BrowserHandler) FetchTerrain(ctx context.Context) (*models.TerrainPayload, json.RawMessage, error) {
	raw, err := h.fetchObject(ctx, h.resort.TerrainURL, h.resort.StatusObject)
	if err != nil {
		return nil, nil, err
	}
	payload, err := parseTerrainFeed(raw)
	if err != nil {
		return nil, nil, err
	}
	return payload, raw, nil
}

func (h *BrowserHandler) FetchSnow(ctx context.Context) (*models.SnowPayload, error) {
	raw, err := h.fetchObject(ctx, h.resort.SnowReportURL, h.resort.SnowObject)
	if err != nil {
		return nil, err
	}
	return parseSnowFeed(raw)
}

// fetchObject loads pageURL and polls the named window global until page
// scripts have populated it or the poll attempts run out.
func (h *BrowserHandler) fetchObject(ctx context.Context, pageURL, objectPath string) (json.RawMessage, error) {
	if err := h.ensureBrowser(); err != nil {
		return nil, err
	}

	page, err := h.browser.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	defer page.Close()

	log.Printf("[%s] navigating to %s", h.resort.Key, pageURL)
	_, err = page.Goto(pageURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(pageLoadTimeoutMs),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return nil, fmt.Errorf("navigate %s: %w", pageURL, err)
	}

	// The status object appears whenever the page's own scripts finish,
	// not at any load event, so poll for it.
	expr := fmt.Sprintf(`(() => {
		try {
			const o = window.%s;
			return o ? JSON.stringify(o) : null;
		} catch (e) {
			return null;
		}
	})()`, objectPath)

	for i := 0; i < statusPollTries; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := page.Evaluate(expr)
		if err == nil && result != nil {
			if s, ok := result.(string); ok && s != "" {
				log.Printf("[%s] %s ready after %d polls (%d bytes)", h.resort.Key, objectPath, i+1, len(s))
				return json.RawMessage(s), nil
			}
		}
		page.WaitForTimeout(statusPollDelayMs)
	}

	return nil, fmt.Errorf("%s never appeared on %s", objectPath, pageURL)
}

func (h *BrowserHandler) ensureBrowser() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return nil
	}

	var err error
	h.pw, err = playwright.Run()
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}

	h.browser, err = h.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args: []string{
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		h.pw.Stop()
		h.pw = nil
		return fmt.Errorf("launch browser: %w", err)
	}

	h.initialized = true
	return nil
}

func (h *BrowserHandler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.browser != nil {
		h.browser.Close()
		h.browser = nil
	}
	if h.pw != nil {
		h.pw.Stop()
		h.pw = nil
	}
	h.initialized = false
}
