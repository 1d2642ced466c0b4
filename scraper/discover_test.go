package scraper

import (
	"context"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-scrape-prices/models"
)

func TestDiscoverCategories(t *testing.T) {
	s, transport := newTestScraper(t, testConfig())
	registerLanding(transport, landingPage("/categories/dairy/", "/categories/fruit", "/categories/dairy/"))

	categories, err := s.DiscoverCategories(context.Background())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}

	want := []models.CategoryRef{
		{URL: testBase + "/categories/dairy/", Name: "dairy"},
		{URL: testBase + "/categories/fruit", Name: "fruit"},
	}
	if len(categories) != len(want) {
		t.Fatalf("categories = %+v, want %+v", categories, want)
	}
	for i := range want {
		if categories[i] != want[i] {
			t.Fatalf("category %d = %+v, want %+v", i, categories[i], want[i])
		}
	}
}

func TestDiscoverCategoriesEmpty(t *testing.T) {
	s, transport := newTestScraper(t, testConfig())
	registerLanding(transport, "<html><body><h1>Maintenance</h1></body></html>")

	categories, err := s.DiscoverCategories(context.Background())
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(categories) != 0 {
		t.Fatalf("categories = %+v, want none", categories)
	}
}

func TestDiscoverCategoriesFetchFailure(t *testing.T) {
	s, transport := newTestScraper(t, testConfig())
	responder := httpmock.NewStringResponder(http.StatusForbidden, "")
	transport.RegisterResponder(http.MethodGet, testBase+"/", responder)
	transport.RegisterResponder(http.MethodGet, testBase, responder)

	if _, err := s.DiscoverCategories(context.Background()); err == nil {
		t.Fatalf("expected landing page failure to be returned")
	}
}
