package scraper

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-scrape-prices/config"
)

const testBase = "http://example.test"

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.BaseURL = testBase + "/"
	cfg.Delay = 0
	cfg.MaxRetries = 0
	cfg.Workers = 1
	cfg.ProductCacheSize = 0
	return cfg
}

func newTestScraper(t *testing.T, cfg *config.Config, opts ...Option) (*Scraper, *httpmock.MockTransport) {
	t.Helper()
	s, err := NewScraper(cfg, opts...)
	if err != nil {
		t.Fatalf("new scraper: %v", err)
	}
	transport := httpmock.NewMockTransport()
	s.fetcher.collector.WithTransport(transport)
	return s, transport
}

func htmlResponder(body string) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(http.StatusOK, body)
		resp.Header.Set("Content-Type", "text/html; charset=utf-8")
		resp.Request = req
		return resp, nil
	}
}

func register(transport *httpmock.MockTransport, path, body string) {
	transport.RegisterResponder(http.MethodGet, testBase+path, htmlResponder(body))
}

func registerLanding(transport *httpmock.MockTransport, body string) {
	transport.RegisterResponder(http.MethodGet, testBase+"/", htmlResponder(body))
	transport.RegisterResponder(http.MethodGet, testBase, htmlResponder(body))
}

func calls(transport *httpmock.MockTransport, path string) int {
	return transport.GetCallCountInfo()["GET "+testBase+path]
}

func landingPage(categoryHrefs ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><nav>")
	for _, href := range categoryHrefs {
		fmt.Fprintf(&b, `<a class="category-anchor" href="%s">%s</a>`, href, href)
	}
	b.WriteString(`<a class="category-anchor">no link</a>`)
	b.WriteString(`<a class="other" href="/about">About</a>`)
	b.WriteString("</nav></body></html>")
	return b.String()
}

// listingPage renders a category page. An empty next omits the pager.
func listingPage(productHrefs []string, next string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	b.WriteString(`<div class="mt-1 row row-cols-1 row-cols-sm-1 row-cols-md-2 row-cols-lg-3 row-cols-xl-4 row-cols-xxl-5 gx-1 gy-1">`)
	for _, href := range productHrefs {
		fmt.Fprintf(&b, `<div class="col"><a href="%s"><img src="/thumb.jpg"></a><a href="/brands/x">brand</a></div>`, href)
	}
	b.WriteString("</div>")
	b.WriteString(`<ul class="pagination"><li><a class="page-link" href="/prev">«</a></li><li><a class="page-link" href="?p=1">1</a></li>`)
	if next != "" {
		fmt.Fprintf(&b, `<li><a class="page-link" href="%s"> » </a></li>`, next)
	}
	b.WriteString("</ul></body></html>")
	return b.String()
}

type testStore struct {
	name      string
	link      string
	price     string
	unitPrice string
}

func productPage(name, image string, stores ...testStore) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if name != "" {
		fmt.Fprintf(&b, `<h1 class="d-flex justify-content-center text-center mt-4 fs-lg fw-bold"> %s </h1>`, name)
	}
	if image != "" {
		fmt.Fprintf(&b, `<img class="results-product-image" src="%s">`, image)
	}
	for _, st := range stores {
		b.WriteString(`<div class="bottom-border white-container row mx-auto d-md-flex d-block mt-4 pb-2">`)
		if st.name != "" {
			fmt.Fprintf(&b, `<img class="d-flex justify-content-center store-logo" alt="%s" src="/logo.png">`, st.name)
		}
		if st.link != "" {
			fmt.Fprintf(&b, `<a href="%s">Go to store</a>`, st.link)
		}
		if st.price != "" {
			fmt.Fprintf(&b, `<span class="d-flex justify-content-center fs-xx-lg fw-bold">%s</span>`, st.price)
		}
		if st.unitPrice != "" {
			fmt.Fprintf(&b, `<span class="d-flex justify-content-center fs-md">%s</span>`, st.unitPrice)
		}
		b.WriteString("</div>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func store(name string) testStore {
	return testStore{
		name:      name,
		link:      "/redirect/" + strings.ToLower(name),
		price:     "2,49 €",
		unitPrice: "2,49 €/kg",
	}
}
