package scraper

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-scrape-prices/config"
)

// Page is a fetched document.
type Page struct {
	URL        *url.URL
	StatusCode int
	Body       []byte
}

// Document parses the page body into a queryable node tree.
func (p *Page) Document() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(p.Body))
	if err != nil {
		return nil, &ParseError{URL: p.URL.String(), Err: err}
	}
	doc.Url = p.URL
	return doc, nil
}

// Fetcher retrieves pages through a synchronous colly collector. Each call
// carries its own colly context, so concurrent callers never see each
// other's responses.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	metrics   *Metrics

	requestCount int64
	retryCount   int64
}

const (
	ctxBody   = "body"
	ctxStatus = "status"
	ctxURL    = "final_url"
	ctxStart  = "start"
)

// NewFetcher builds a fetcher restricted to the configured host.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Hostname()),
		colly.UserAgent(cfg.UserAgent),
	)
	collector.AllowURLRevisit = true
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: cfg.Workers,
		RandomDelay: cfg.RandomDelay,
	}); err != nil {
		return nil, fmt.Errorf("configure rate limits: %w", err)
	}

	f := &Fetcher{
		cfg:       cfg,
		collector: collector,
		metrics:   metrics,
	}
	f.configureHandlers()
	return f, nil
}

func (f *Fetcher) configureHandlers() {
	f.collector.OnRequest(func(r *colly.Request) {
		r.Ctx.Put(ctxStart, time.Now())
		atomic.AddInt64(&f.requestCount, 1)
		f.metrics.IncRequest("started")
	})

	f.collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxBody, r.Body)
		r.Ctx.Put(ctxStatus, r.StatusCode)
		r.Ctx.Put(ctxURL, r.Request.URL.String())
		f.observe(r.Ctx)
		f.metrics.IncRequest("completed")
	})

	f.collector.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Ctx == nil {
			return
		}
		r.Ctx.Put(ctxStatus, r.StatusCode)
		f.observe(r.Ctx)
		f.metrics.IncRequest("failed")
	})
}

func (f *Fetcher) observe(ctx *colly.Context) {
	if start, ok := ctx.GetAny(ctxStart).(time.Time); ok {
		f.metrics.ObserveDuration(time.Since(start))
	}
}

// Fetch downloads rawURL, retrying transient failures with capped
// exponential backoff. Failures are returned as *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := f.fetchOnce(rawURL)
		if err == nil {
			return page, nil
		}

		label := errorTypeLabel(err)
		f.metrics.IncError(label)
		if attempt >= f.cfg.MaxRetries || !retryable(err) {
			return nil, err
		}

		atomic.AddInt64(&f.retryCount, 1)
		f.metrics.IncRetries()
		delay := f.backoff(attempt + 1)
		slog.Debug("retrying request",
			slog.String("url", rawURL),
			slog.String("category", label),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
		)
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (f *Fetcher) fetchOnce(rawURL string) (*Page, error) {
	cctx := colly.NewContext()
	err := f.collector.Request(http.MethodGet, rawURL, nil, cctx, nil)
	status, _ := cctx.GetAny(ctxStatus).(int)
	if err != nil {
		return nil, &FetchError{URL: rawURL, StatusCode: status, Err: classifyError(err, status)}
	}

	body, _ := cctx.GetAny(ctxBody).([]byte)
	final := cctx.Get(ctxURL)
	if final == "" {
		final = rawURL
	}
	pageURL, err := url.Parse(final)
	if err != nil {
		return nil, &FetchError{URL: rawURL, StatusCode: status, Err: fmt.Errorf("parse final url: %w", err)}
	}
	return &Page{URL: pageURL, StatusCode: status, Body: body}, nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := f.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := f.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

// RequestCount returns the number of HTTP requests issued.
func (f *Fetcher) RequestCount() int {
	return int(atomic.LoadInt64(&f.requestCount))
}

// RetryCount returns the number of retries performed.
func (f *Fetcher) RetryCount() int {
	return int(atomic.LoadInt64(&f.retryCount))
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
