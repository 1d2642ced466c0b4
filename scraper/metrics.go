package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry              *prometheus.Registry
	RequestsTotal         *prometheus.CounterVec
	RequestDuration       prometheus.Histogram
	OffersTotal           prometheus.Counter
	ProductsFailedTotal   prometheus.Counter
	CategoriesFailedTotal prometheus.Counter
	ProductCacheHitsTotal prometheus.Counter
	RetriesTotal          prometheus.Counter
	ErrorsTotal           *prometheus.CounterVec
	Batches               prometheus.Gauge
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued by the scraper.",
		},
		[]string{"phase"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for scraper requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	offers := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_offers_total",
			Help: "Total store offers appended to the dataset.",
		},
	)
	productsFailed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_products_failed_total",
			Help: "Product pages skipped after a fetch or parse failure.",
		},
	)
	categoriesFailed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_categories_failed_total",
			Help: "Categories skipped after a pagination failure.",
		},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_product_cache_hits_total",
			Help: "Product extractions served from the in-memory cache.",
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total number of retry attempts scheduled.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of scraper errors by type.",
		},
		[]string{"error_type"},
	)
	batches := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scraper_batches",
			Help: "Distinct products identified so far.",
		},
	)

	registry.MustRegister(requests, requestDuration, offers, productsFailed, categoriesFailed, cacheHits, retries, errorsTotal, batches)

	return &Metrics{
		Registry:              registry,
		RequestsTotal:         requests,
		RequestDuration:       requestDuration,
		OffersTotal:           offers,
		ProductsFailedTotal:   productsFailed,
		CategoriesFailedTotal: categoriesFailed,
		ProductCacheHitsTotal: cacheHits,
		RetriesTotal:          retries,
		ErrorsTotal:           errorsTotal,
		Batches:               batches,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(phase string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// AddOffers increments the offers counter by n.
func (m *Metrics) AddOffers(n int) {
	if m == nil {
		return
	}
	m.OffersTotal.Add(float64(n))
}

// IncProductFailed counts a skipped product page.
func (m *Metrics) IncProductFailed() {
	if m == nil {
		return
	}
	m.ProductsFailedTotal.Inc()
}

// IncCategoryFailed counts a skipped category.
func (m *Metrics) IncCategoryFailed() {
	if m == nil {
		return
	}
	m.CategoriesFailedTotal.Inc()
}

// IncCacheHit counts a product served from cache.
func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.ProductCacheHitsTotal.Inc()
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// SetBatches records the number of distinct products.
func (m *Metrics) SetBatches(n int64) {
	if m == nil {
		return
	}
	m.Batches.Set(float64(n))
}
