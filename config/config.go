package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Selectors locates the page elements the crawler reads. Class-based
// selectors match elements carrying all listed classes.
type Selectors struct {
	CategoryLink      string `yaml:"category_link"`
	ProductContainer  string `yaml:"product_container"`
	ProductPathPrefix string `yaml:"product_path_prefix"`
	NextPage          string `yaml:"next_page"`
	NextPageGlyph     string `yaml:"next_page_glyph"`
	ProductName       string `yaml:"product_name"`
	ProductImage      string `yaml:"product_image"`
	StoreBlock        string `yaml:"store_block"`
	StoreLogo         string `yaml:"store_logo"`
	Price             string `yaml:"price"`
	UnitPrice         string `yaml:"unit_price"`
}

// Config holds scraper configuration.
type Config struct {
	BaseURL          string        `yaml:"base_url"`
	MaxPages         int           `yaml:"max_pages"`
	Workers          int           `yaml:"workers"`
	Delay            time.Duration `yaml:"delay"`
	RandomDelay      time.Duration `yaml:"random_delay"`
	Timeout          time.Duration `yaml:"timeout"`
	MaxRetries       int           `yaml:"max_retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	RetryBackoffMax  time.Duration `yaml:"retry_backoff_max"`
	OutputFile       string        `yaml:"output_file"`
	OutputFormat     string        `yaml:"output_format"` // json, csv, sqlite, or dual
	UserAgent        string        `yaml:"user_agent"`
	Verbose          bool          `yaml:"verbose"`
	RespectRobotsTxt bool          `yaml:"respect_robots_txt"`
	MetricsAddr      string        `yaml:"metrics_addr"`
	ProductCacheSize int           `yaml:"product_cache_size"`
	Selectors        Selectors     `yaml:"selectors"`
}

// DefaultSelectors returns the selectors for the bigle.gr markup.
func DefaultSelectors() Selectors {
	return Selectors{
		CategoryLink:      "a.category-anchor",
		ProductContainer:  "div.mt-1.row.row-cols-1.row-cols-sm-1.row-cols-md-2.row-cols-lg-3.row-cols-xl-4.row-cols-xxl-5.gx-1.gy-1",
		ProductPathPrefix: "/products",
		NextPage:          "a.page-link",
		NextPageGlyph:     "»",
		ProductName:       "h1.d-flex.justify-content-center.text-center.mt-4.fs-lg.fw-bold",
		ProductImage:      "img.results-product-image",
		StoreBlock:        "div.bottom-border.white-container.row.mx-auto.d-md-flex.d-block.mt-4.pb-2",
		StoreLogo:         "img.d-flex.justify-content-center.store-logo",
		Price:             "span.d-flex.justify-content-center.fs-xx-lg.fw-bold",
		UnitPrice:         "span.d-flex.justify-content-center.fs-md",
	}
}

// DefaultConfig returns polite defaults for the comparison site.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:          "https://www.bigle.gr",
		MaxPages:         500,
		Workers:          1,
		Delay:            100 * time.Millisecond,
		RandomDelay:      0,
		Timeout:          15 * time.Second,
		MaxRetries:       2,
		RetryBackoff:     200 * time.Millisecond,
		RetryBackoffMax:  2 * time.Second,
		OutputFile:       "products.json",
		OutputFormat:     "json",
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:          false,
		RespectRobotsTxt: false,
		MetricsAddr:      "",
		ProductCacheSize: 4096,
		Selectors:        DefaultSelectors(),
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.RandomDelay < 0 {
		return fmt.Errorf("random delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	switch c.OutputFormat {
	case "json", "csv", "sqlite", "dual":
	default:
		return fmt.Errorf("output format must be json, csv, sqlite, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.ProductCacheSize < 0 {
		return fmt.Errorf("product cache size cannot be negative")
	}
	return c.Selectors.Validate()
}

// Validate reports the first empty selector.
func (s Selectors) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"category_link", s.CategoryLink},
		{"product_container", s.ProductContainer},
		{"product_path_prefix", s.ProductPathPrefix},
		{"next_page", s.NextPage},
		{"next_page_glyph", s.NextPageGlyph},
		{"product_name", s.ProductName},
		{"product_image", s.ProductImage},
		{"store_block", s.StoreBlock},
		{"store_logo", s.StoreLogo},
		{"price", s.Price},
		{"unit_price", s.UnitPrice},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("selector %s cannot be empty", r.name)
		}
	}
	return nil
}
