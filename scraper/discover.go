package scraper

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-prices/models"
	"github.com/aluiziolira/go-scrape-prices/parser"
)

// DiscoverCategories reads the landing page and returns its category links
// in document order. Anchors without an href are skipped; a page without
// categories yields an empty slice.
func (s *Scraper) DiscoverCategories(ctx context.Context) ([]models.CategoryRef, error) {
	page, err := s.fetcher.Fetch(ctx, s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch landing page: %w", err)
	}
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	categories := make([]models.CategoryRef, 0)
	doc.Find(s.cfg.Selectors.CategoryLink).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		abs, ok := parser.ResolveURL(page.URL, href)
		if !ok {
			return
		}
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		categories = append(categories, models.CategoryRef{
			URL:  abs,
			Name: parser.CategoryName(abs),
		})
	})
	return categories, nil
}
