package parser

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-prices/models"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "surrounding whitespace", input: "  12,50 €  ", expected: "12,50 €"},
		{name: "internal newlines", input: "1,20 €\n\t/ τεμ.", expected: "1,20 € / τεμ."},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.expected {
				t.Errorf("NormalizeText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTextOrNotFound(t *testing.T) {
	doc := mustDoc(t, `<div><span class="price"> 3,99 € </span><span class="empty"></span></div>`)

	if got := TextOrNotFound(doc.Find("span.price")); got != "3,99 €" {
		t.Fatalf("price = %q", got)
	}
	if got := TextOrNotFound(doc.Find("span.missing")); got != models.NotFound {
		t.Fatalf("missing element = %q, want sentinel", got)
	}
	if got := TextOrNotFound(doc.Find("span.empty")); got != "" {
		t.Fatalf("present but empty element = %q, want empty string", got)
	}
}

func TestAttrAndLink(t *testing.T) {
	base, _ := url.Parse("https://www.example.test/products/milk")
	doc := mustDoc(t, `<div>
		<img class="logo" alt="Store A">
		<img class="nologo">
		<a class="rel" href="/go/store-a">buy</a>
		<a class="abs" href="https://store.example/item">buy</a>
		<a class="blank" href="">buy</a>
		<img class="nosrc" src="">
	</div>`)

	if got := AttrOrNotFound(doc.Find("img.logo"), "alt"); got != "Store A" {
		t.Fatalf("alt = %q", got)
	}
	if got := AttrOrNotFound(doc.Find("img.nologo"), "alt"); got != models.NotFound {
		t.Fatalf("missing alt = %q, want sentinel", got)
	}
	if got := LinkOrNotFound(base, doc.Find("a.rel"), "href"); got != "https://www.example.test/go/store-a" {
		t.Fatalf("relative link = %q", got)
	}
	if got := LinkOrNotFound(base, doc.Find("a.abs"), "href"); got != "https://store.example/item" {
		t.Fatalf("absolute link = %q", got)
	}
	if got := LinkOrNotFound(base, doc.Find("a.none"), "href"); got != models.NotFound {
		t.Fatalf("missing link = %q, want sentinel", got)
	}
	if got := LinkOrNotFound(base, doc.Find("a.blank"), "href"); got != base.String() {
		t.Fatalf("empty href = %q, want page url", got)
	}
	if got := LinkOrNotFound(base, doc.Find("img.nosrc"), "src"); got != base.String() {
		t.Fatalf("empty src = %q, want page url", got)
	}
}

func TestResolveURL(t *testing.T) {
	base, _ := url.Parse("https://www.example.test/cat/page?p=2")

	if got, ok := ResolveURL(base, "/products/x"); !ok || got != "https://www.example.test/products/x" {
		t.Fatalf("root relative = %q/%v", got, ok)
	}
	if _, ok := ResolveURL(base, "   "); ok {
		t.Fatalf("blank href should not resolve")
	}
	if got, ok := ResolveURL(base, "?p=3"); !ok || got != "https://www.example.test/cat/page?p=3" {
		t.Fatalf("query only = %q/%v", got, ok)
	}
}

func TestCategoryName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "https://www.bigle.gr/categories/galaktokomika/", expected: "galaktokomika"},
		{input: "https://www.bigle.gr/categories/fruit", expected: "fruit"},
		{input: "https://www.bigle.gr/categories/fruit?page=2", expected: "fruit"},
		{input: "https://www.bigle.gr/", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := CategoryName(tt.input); got != tt.expected {
				t.Errorf("CategoryName(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
