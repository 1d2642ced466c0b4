// Package models defines data structures for the scraper.
package models

import "time"

// NotFound is substituted for any field whose page element is absent.
const NotFound = "Not found"

// CategoryRef is a category entry page discovered on the landing page.
type CategoryRef struct {
	URL  string
	Name string
}

// ProductRef is the absolute URL of a product page.
type ProductRef = string

// StoreOffer is one store's listing of one product.
type StoreOffer struct {
	ProductName  string `csv:"product_name" json:"product_name" db:"product_name"`
	ProductImage string `csv:"product_image" json:"product_image" db:"product_image"`
	StoreName    string `csv:"store_name" json:"store_name" db:"store_name"`
	ProductLink  string `csv:"product_link" json:"product_link" db:"product_link"`
	Price        string `csv:"price" json:"price" db:"price"`
	UnitPrice    string `csv:"unit_price" json:"unit_price" db:"unit_price"`
}

// BatchRecord is a StoreOffer tagged with its product batch and category.
// Offers of the same product from different stores share a BatchID.
type BatchRecord struct {
	BatchID  int    `csv:"batch_id" json:"batch_id" db:"batch_id"`
	Category string `csv:"category" json:"category" db:"category"`
	StoreOffer
}

// CrawlResult holds the overall result of a crawl run.
type CrawlResult struct {
	RunID            string
	StartTime        time.Time
	EndTime          time.Time
	Categories       int
	FailedCategories []string
	Products         int
	FailedProducts   []string
	Offers           int
	Batches          int
	ErrorsByType     map[string]int
	RetryCount       int
	RequestCount     int
	PageCount        int
}
