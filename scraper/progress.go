package scraper

import (
	"fmt"
	"io"
	"sync"

	"github.com/aluiziolira/go-scrape-prices/models"
)

// Reporter receives human-facing progress events from a crawl run.
type Reporter interface {
	CategoriesFound(n int)
	CategoryStarted(category models.CategoryRef, products int)
	ProductDone(done, total int)
	ProductFailed(url string, err error)
	CategoryFinished(category models.CategoryRef)
}

// ConsoleReporter writes progress lines, rewriting the running counter in
// place with a carriage return.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter reports to out.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: out}
}

func (c *ConsoleReporter) CategoriesFound(n int) {
	c.printf("Found %d categories\n", n)
}

func (c *ConsoleReporter) CategoryStarted(category models.CategoryRef, products int) {
	c.printf("%d products found in %s\n", products, category.URL)
}

func (c *ConsoleReporter) ProductDone(done, total int) {
	percent := 100.0
	if total > 0 {
		percent = float64(done) / float64(total) * 100
	}
	c.printf("\rProgress: %d/%d (%.1f%%)", done, total, percent)
}

func (c *ConsoleReporter) ProductFailed(url string, err error) {
	c.printf("\nWarning: error scraping %s: %v\n", url, err)
}

func (c *ConsoleReporter) CategoryFinished(category models.CategoryRef) {
	c.printf("\nFinished category %s.\n", category.Name)
}

func (c *ConsoleReporter) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

type nopReporter struct{}

func (nopReporter) CategoriesFound(int)                     {}
func (nopReporter) CategoryStarted(models.CategoryRef, int) {}
func (nopReporter) ProductDone(int, int)                    {}
func (nopReporter) ProductFailed(string, error)             {}
func (nopReporter) CategoryFinished(models.CategoryRef)     {}
