// Package parser turns matched document nodes into normalized field values.
package parser

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-prices/models"
)

// NormalizeText trims the text and collapses internal whitespace runs.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// TextOrNotFound returns the normalized text of the first node in sel, or
// the sentinel when sel is empty.
func TextOrNotFound(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return models.NotFound
	}
	return NormalizeText(sel.First().Text())
}

// AttrOrNotFound returns attribute name of the first node in sel, or the
// sentinel when there is no node or the attribute is missing.
func AttrOrNotFound(sel *goquery.Selection, name string) string {
	if sel == nil || sel.Length() == 0 {
		return models.NotFound
	}
	value, ok := sel.First().Attr(name)
	if !ok {
		return models.NotFound
	}
	return strings.TrimSpace(value)
}

// LinkOrNotFound resolves attribute name of the first node in sel against
// base. Missing nodes, missing attributes and unparsable values yield the
// sentinel. An empty value resolves to base itself.
func LinkOrNotFound(base *url.URL, sel *goquery.Selection, name string) string {
	raw := AttrOrNotFound(sel, name)
	if raw == models.NotFound {
		return raw
	}
	if raw == "" {
		if base == nil {
			return ""
		}
		return base.String()
	}
	abs, ok := ResolveURL(base, raw)
	if !ok {
		return models.NotFound
	}
	return abs
}

// ResolveURL resolves href against base. Empty or malformed hrefs report false.
func ResolveURL(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base == nil {
		return ref.String(), ref.IsAbs()
	}
	return base.ResolveReference(ref).String(), true
}

// CategoryName derives a category label from the last path segment of rawURL.
func CategoryName(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	path = strings.Trim(path, "/")
	if path == "" {
		return ""
	}
	segments := strings.Split(path, "/")
	return segments[len(segments)-1]
}
