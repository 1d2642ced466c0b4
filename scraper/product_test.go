package scraper

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-scrape-prices/models"
)

func TestExtractProductOffers(t *testing.T) {
	s, transport := newTestScraper(t, testConfig())
	register(transport, "/products/feta", productPage("Φέτα ΠΟΠ 400g", "/images/feta.jpg", store("Alpha"), store("Beta")))

	offers, err := s.ExtractProduct(context.Background(), testBase+"/products/feta")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("offers = %d, want 2", len(offers))
	}

	want := models.StoreOffer{
		ProductName:  "Φέτα ΠΟΠ 400g",
		ProductImage: testBase + "/images/feta.jpg",
		StoreName:    "Alpha",
		ProductLink:  testBase + "/redirect/alpha",
		Price:        "2,49 €",
		UnitPrice:    "2,49 €/kg",
	}
	if offers[0] != want {
		t.Fatalf("offer = %+v, want %+v", offers[0], want)
	}
	if offers[1].StoreName != "Beta" || offers[1].ProductName != want.ProductName || offers[1].ProductImage != want.ProductImage {
		t.Fatalf("second offer = %+v", offers[1])
	}
}

func TestExtractProductSentinels(t *testing.T) {
	s, transport := newTestScraper(t, testConfig())
	noPrice := store("Gamma")
	noPrice.price = ""
	bare := testStore{}
	register(transport, "/products/odd", productPage("", "", noPrice, bare))

	offers, err := s.ExtractProduct(context.Background(), testBase+"/products/odd")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("offers = %d, want 2", len(offers))
	}

	first := offers[0]
	if first.Price != models.NotFound {
		t.Fatalf("price = %q, want sentinel", first.Price)
	}
	if first.StoreName != "Gamma" || first.UnitPrice != "2,49 €/kg" || first.ProductLink != testBase+"/redirect/gamma" {
		t.Fatalf("present fields changed: %+v", first)
	}
	if first.ProductName != models.NotFound || first.ProductImage != models.NotFound {
		t.Fatalf("missing heading/image should be sentinel: %+v", first)
	}

	want := models.StoreOffer{
		ProductName:  models.NotFound,
		ProductImage: models.NotFound,
		StoreName:    models.NotFound,
		ProductLink:  models.NotFound,
		Price:        models.NotFound,
		UnitPrice:    models.NotFound,
	}
	if offers[1] != want {
		t.Fatalf("bare block = %+v", offers[1])
	}
}

func TestExtractProductWithoutStores(t *testing.T) {
	s, transport := newTestScraper(t, testConfig())
	register(transport, "/products/discontinued", productPage("Old Soap", "/images/soap.jpg"))

	offers, err := s.ExtractProduct(context.Background(), testBase+"/products/discontinued")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if offers == nil || len(offers) != 0 {
		t.Fatalf("offers = %#v, want empty non-nil slice", offers)
	}
}

func TestExtractProductFetchFailure(t *testing.T) {
	s, transport := newTestScraper(t, testConfig())
	transport.RegisterResponder(http.MethodGet, testBase+"/products/gone", httpmock.NewStringResponder(http.StatusNotFound, ""))

	_, err := s.ExtractProduct(context.Background(), testBase+"/products/gone")
	var notFound ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExtractProductCache(t *testing.T) {
	cfg := testConfig()
	cfg.ProductCacheSize = 8
	s, transport := newTestScraper(t, cfg)
	register(transport, "/products/honey", productPage("Honey", "/images/honey.jpg", store("Alpha")))

	for i := 0; i < 3; i++ {
		offers, err := s.ExtractProduct(context.Background(), testBase+"/products/honey")
		if err != nil {
			t.Fatalf("extract %d: %v", i, err)
		}
		if len(offers) != 1 || offers[0].ProductName != "Honey" {
			t.Fatalf("extract %d: offers = %+v", i, offers)
		}
	}
	if got := calls(transport, "/products/honey"); got != 1 {
		t.Fatalf("product fetched %d times, want 1", got)
	}
}
