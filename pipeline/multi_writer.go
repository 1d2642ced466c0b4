package pipeline

import (
	"errors"
	"fmt"

	"github.com/aluiziolira/go-scrape-prices/models"
)

// MultiWriter fans every write out to several writers.
type MultiWriter struct {
	writers []DatasetWriter
}

// NewMultiWriter combines writers; they are written in the given order.
func NewMultiWriter(writers ...DatasetWriter) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// NewDualWriter writes both a JSON and a CSV rendition of the dataset.
func NewDualWriter(jsonFilename, csvFilename string) (*MultiWriter, error) {
	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON writer: %w", err)
	}
	csvWriter, err := NewCSVWriter(csvFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV writer: %w", err)
	}
	return NewMultiWriter(jsonWriter, csvWriter), nil
}

// WriteAll stops at the first failing writer.
func (mw *MultiWriter) WriteAll(records []models.BatchRecord) error {
	for i, w := range mw.writers {
		if err := w.WriteAll(records); err != nil {
			return fmt.Errorf("writer %d: %w", i, err)
		}
	}
	return nil
}

// Close closes every writer and reports all failures.
func (mw *MultiWriter) Close() error {
	var errs []error
	for i, w := range mw.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Validate validates every writer.
func (mw *MultiWriter) Validate() error {
	var errs []error
	for i, w := range mw.writers {
		if err := w.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("validate writer %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
