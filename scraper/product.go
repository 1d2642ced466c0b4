package scraper

import (
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-prices/models"
	"github.com/aluiziolira/go-scrape-prices/parser"
)

// ExtractProduct returns one offer per store block on the product page.
// Missing elements become models.NotFound; a page without store blocks
// yields no offers.
func (s *Scraper) ExtractProduct(ctx context.Context, productURL string) ([]models.StoreOffer, error) {
	if s.cache != nil {
		if offers, ok := s.cache.Get(productURL); ok {
			s.Metrics.IncCacheHit()
			return offers, nil
		}
	}

	page, err := s.fetcher.Fetch(ctx, productURL)
	if err != nil {
		return nil, fmt.Errorf("extract product: %w", err)
	}
	doc, err := page.Document()
	if err != nil {
		return nil, fmt.Errorf("extract product: %w", err)
	}

	offers := s.extractOffers(doc)
	if s.cache != nil {
		s.cache.Add(productURL, offers)
	}
	return offers, nil
}

func (s *Scraper) extractOffers(doc *goquery.Document) []models.StoreOffer {
	sel := s.cfg.Selectors
	base := doc.Url

	name := parser.TextOrNotFound(doc.Find(sel.ProductName))
	image := parser.LinkOrNotFound(base, doc.Find(sel.ProductImage), "src")

	offers := make([]models.StoreOffer, 0)
	doc.Find(sel.StoreBlock).Each(func(_ int, block *goquery.Selection) {
		offers = append(offers, models.StoreOffer{
			ProductName:  name,
			ProductImage: image,
			StoreName:    parser.AttrOrNotFound(block.Find(sel.StoreLogo), "alt"),
			ProductLink:  parser.LinkOrNotFound(base, block.Find("a"), "href"),
			Price:        parser.TextOrNotFound(block.Find(sel.Price)),
			UnitPrice:    parser.TextOrNotFound(block.Find(sel.UnitPrice)),
		})
	})
	return offers
}
