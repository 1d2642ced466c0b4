package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/aluiziolira/go-scrape-prices/config"
	"github.com/aluiziolira/go-scrape-prices/models"
	"github.com/aluiziolira/go-scrape-prices/pipeline"
)

// Scraper drives a crawl: categories, their paginated product listings,
// product extraction and hand-off to the pipeline.
type Scraper struct {
	cfg      *config.Config
	fetcher  *Fetcher
	cache    *lru.Cache[string, []models.StoreOffer]
	reporter Reporter
	logger   *slog.Logger
	Metrics  *Metrics

	pageCount int64

	mu               sync.Mutex
	failedProducts   []string
	failedCategories []string
	errorsByType     map[string]int
	products         int
	offers           int
}

// Option customises a Scraper.
type Option func(*Scraper)

// WithReporter sets the progress reporter. The default discards progress.
func WithReporter(r Reporter) Option {
	return func(s *Scraper) {
		if r != nil {
			s.reporter = r
		}
	}
}

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config, opts ...Option) (*Scraper, error) {
	metrics := NewMetrics()
	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		return nil, err
	}

	s := &Scraper{
		cfg:          cfg,
		fetcher:      fetcher,
		reporter:     nopReporter{},
		logger:       slog.Default(),
		Metrics:      metrics,
		errorsByType: make(map[string]int),
	}
	if cfg.ProductCacheSize > 0 {
		cache, err := lru.New[string, []models.StoreOffer](cfg.ProductCacheSize)
		if err != nil {
			return nil, fmt.Errorf("create product cache: %w", err)
		}
		s.cache = cache
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run crawls every discovered category and feeds extracted offers to p.
// Only a failed landing page, a persistence failure or cancellation stop
// the run; failed categories and products are logged and skipped. The
// returned result is non-nil whenever discovery succeeded.
func (s *Scraper) Run(ctx context.Context, p *pipeline.Pipeline) (*models.CrawlResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := uuid.NewString()
	logger := s.logger.With(slog.String("run_id", runID))
	start := time.Now()

	categories, err := s.DiscoverCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover categories: %w", err)
	}
	s.reporter.CategoriesFound(len(categories))
	logger.Info("categories discovered", slog.Int("count", len(categories)))

	var runErr error
	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := s.crawlCategory(ctx, logger, p, category); err != nil {
			runErr = err
			break
		}
	}

	result := s.result(runID, start, len(categories), p)
	return result, runErr
}

func (s *Scraper) crawlCategory(ctx context.Context, logger *slog.Logger, p *pipeline.Pipeline, category models.CategoryRef) error {
	logger = logger.With(slog.String("category", category.Name))

	links, err := s.WalkCategory(ctx, category.URL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.recordFailure(&s.failedCategories, category.URL, err)
		s.Metrics.IncCategoryFailed()
		logger.Warn("skipping category",
			slog.String("url", category.URL),
			slog.Any("error", err),
		)
		return nil
	}

	total := len(links)
	s.reporter.CategoryStarted(category, total)
	logger.Info("category listed", slog.String("url", category.URL), slog.Int("products", total))

	var done int64
	process := func(ctx context.Context, productURL string) error {
		err := s.processProduct(ctx, logger, p, category, productURL)
		s.reporter.ProductDone(int(atomic.AddInt64(&done, 1)), total)
		if err != nil {
			return err
		}
		return sleepCtx(ctx, s.cfg.Delay)
	}

	if s.cfg.Workers <= 1 {
		for _, link := range links {
			if err := process(ctx, link); err != nil {
				return err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.cfg.Workers)
		for _, link := range links {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				return process(gctx, link)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	s.reporter.CategoryFinished(category)
	return nil
}

// processProduct returns an error only when the run must stop.
func (s *Scraper) processProduct(ctx context.Context, logger *slog.Logger, p *pipeline.Pipeline, category models.CategoryRef, productURL string) error {
	s.mu.Lock()
	s.products++
	s.mu.Unlock()

	offers, err := s.ExtractProduct(ctx, productURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.recordFailure(&s.failedProducts, productURL, err)
		s.Metrics.IncProductFailed()
		s.reporter.ProductFailed(productURL, err)
		logger.Warn("error scraping product",
			slog.String("url", productURL),
			slog.Any("error", err),
		)
		return nil
	}

	added, err := p.Add(category.Name, offers)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.offers += len(added)
	s.mu.Unlock()
	s.Metrics.AddOffers(len(added))
	if batches, ok := p.GetMetrics()["batches"].(int64); ok {
		s.Metrics.SetBatches(batches)
	}
	return nil
}

func (s *Scraper) recordFailure(list *[]string, url string, err error) {
	label := errorTypeLabel(err)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		// fetch failures are already counted by the fetcher
		s.Metrics.IncError(label)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	*list = append(*list, url)
	s.errorsByType[label]++
}

func (s *Scraper) result(runID string, start time.Time, categories int, p *pipeline.Pipeline) *models.CrawlResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	errorsByType := make(map[string]int, len(s.errorsByType))
	for k, v := range s.errorsByType {
		errorsByType[k] = v
	}
	result := &models.CrawlResult{
		RunID:            runID,
		StartTime:        start,
		EndTime:          time.Now(),
		Categories:       categories,
		FailedCategories: append([]string(nil), s.failedCategories...),
		Products:         s.products,
		FailedProducts:   append([]string(nil), s.failedProducts...),
		Offers:           s.offers,
		ErrorsByType:     errorsByType,
		RetryCount:       s.fetcher.RetryCount(),
		RequestCount:     s.fetcher.RequestCount(),
		PageCount:        int(atomic.LoadInt64(&s.pageCount)),
	}
	if batches, ok := p.GetMetrics()["batches"].(int64); ok {
		result.Batches = int(batches)
	}
	return result
}
