package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"powderlines/httputil"
	"powderlines/models"
)

const maxFeedBytes = 4 * 1024 * 1024

// APIHandler fetches resort feeds without a browser. The URL may serve
// JSON directly, or an HTML page whose inline scripts assign the status
// object; in the HTML case the blob is cut out of the script source.
type APIHandler struct {
	resort *models.Resort
	client *http.Client
}

func NewAPIHandler(r *models.Resort, clients *httputil.Clients) *APIHandler {
	return &APIHandler{resort: r, client: clients.Scraping}
}

func (h *APIHandler) ID() string {
	return h.resort.Key
}

func (h *APIHandler) Close() {}

func (h *APIHandler) FetchTerrain(ctx context.Context) (*models.TerrainPayload, json.RawMessage, error) {
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

func (h *APIHandler) FetchSnow(ctx context.Context) (*models.SnowPayload, error) {
	raw, err := h.fetchObject(ctx, h.resort.SnowReportURL, h.resort.SnowObject)
	if err != nil {
		return nil, err
	}
	return parseSnowFeed(raw)
}

func (h *APIHandler) fetchObject(ctx context.Context, feedURL, objectPath string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json, text/html;q=0.9")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", feedURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return json.RawMessage(trimmed), nil
	}

	blob, err := extractEmbeddedObject(trimmed, objectPath)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", feedURL, err)
	}
	log.Printf("[%s] extracted %s from embedded script (%d bytes)", h.resort.Key, objectPath, len(blob))
	return blob, nil
}

// extractEmbeddedObject finds the `<objectPath> = {...}` assignment inside
// the page's inline scripts and returns the object literal. Resort pages
// embed the feed this way so the same blob the browser path reads is
// reachable without executing any page script.
func extractEmbeddedObject(html, objectPath string) (json.RawMessage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	var blob json.RawMessage
	doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if src, ok := s.Attr("src"); ok && src != "" {
			return true
		}
		if found := cutAssignment(s.Text(), objectPath); found != nil {
			blob = found
			return false
		}
		return true
	})

	if blob == nil {
		return nil, fmt.Errorf("no %s assignment in page scripts", objectPath)
	}
	return blob, nil
}

// cutAssignment locates `path = {` in script source and returns the
// balanced object literal, skipping braces inside string literals.
func cutAssignment(script, path string) json.RawMessage {
	idx := strings.Index(script, path)
	for idx >= 0 {
		rest := script[idx+len(path):]
		trimmed := strings.TrimLeft(rest, " \t\r\n")
		if !strings.HasPrefix(trimmed, "=") {
			next := strings.Index(rest, path)
			if next < 0 {
				return nil
			}
			idx += len(path) + next
			continue
		}
		trimmed = strings.TrimLeft(trimmed[1:], " \t\r\n")
		if !strings.HasPrefix(trimmed, "{") {
			return nil
		}
		return balancedObject(trimmed)
	}
	return nil
}

func balancedObject(s string) json.RawMessage {
	depth := 0
	inString := false
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case quote:
				inString = false
			}
			continue
		}
		switch c {
		case '"', '\'':
			inString = true
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return json.RawMessage(s[:i+1])
			}
		}
	}
	return nil
}
