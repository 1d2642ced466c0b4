package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-prices/config"
	"github.com/aluiziolira/go-scrape-prices/models"
	"github.com/aluiziolira/go-scrape-prices/parser"
)

// WalkCategory follows the next-page links starting at entryURL and returns
// the distinct product URLs listed on the visited pages.
//
// A next link pointing at a page already visited in this walk ends the
// traversal. Any failed page aborts the walk and is returned.
func (s *Scraper) WalkCategory(ctx context.Context, entryURL string) ([]models.ProductRef, error) {
	sel := s.cfg.Selectors
	visited := make(map[string]struct{})
	var links []string

	current := entryURL
	for current != "" {
		if _, ok := visited[current]; ok {
			break
		}
		if len(visited) >= s.cfg.MaxPages {
			slog.Warn("page limit reached, stopping category",
				slog.String("url", entryURL),
				slog.Int("max_pages", s.cfg.MaxPages),
			)
			break
		}
		visited[current] = struct{}{}
		slog.Debug("scraping category page", slog.String("url", current))

		page, err := s.fetcher.Fetch(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("walk category %s: %w", entryURL, err)
		}
		atomic.AddInt64(&s.pageCount, 1)

		doc, err := page.Document()
		if err != nil {
			return nil, fmt.Errorf("walk category %s: %w", entryURL, err)
		}
		links = append(links, productLinks(doc, page.URL, sel)...)

		current = ""
		if next, ok := nextPageURL(doc, page.URL, sel); ok {
			if _, seen := visited[next]; !seen {
				current = next
			}
		}
		if current != "" {
			if err := sleepCtx(ctx, s.cfg.Delay); err != nil {
				return nil, err
			}
		}
	}

	return dedupe(links), nil
}

func productLinks(doc *goquery.Document, base *url.URL, sel config.Selectors) []string {
	container := doc.Find(sel.ProductContainer).First()
	if container.Length() == 0 {
		return nil
	}

	var out []string
	container.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.HasPrefix(href, sel.ProductPathPrefix) {
			return
		}
		if abs, ok := parser.ResolveURL(base, href); ok {
			out = append(out, abs)
		}
	})
	return out
}

// nextPageURL returns the href of the first pagination anchor whose text
// contains the glyph.
func nextPageURL(doc *goquery.Document, base *url.URL, sel config.Selectors) (string, bool) {
	var next *goquery.Selection
	doc.Find(sel.NextPage).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.Contains(strings.TrimSpace(a.Text()), sel.NextPageGlyph) {
			next = a
			return false
		}
		return true
	})
	if next == nil {
		return "", false
	}
	href, ok := next.Attr("href")
	if !ok {
		return "", false
	}
	return parser.ResolveURL(base, href)
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
