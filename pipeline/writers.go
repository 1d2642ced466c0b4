package pipeline

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/aluiziolira/go-scrape-prices/models"
)

var csvHeader = []string{"batch_id", "category", "product_name", "product_image", "store_name", "product_link", "price", "unit_price"}

// JSONWriter rewrites a single indented JSON array on every WriteAll.
type JSONWriter struct {
	path string
	mu   sync.Mutex
}

// NewJSONWriter prepares the output directory for filename.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &JSONWriter{path: filename}, nil
}

// WriteAll replaces the file with records. Non-ASCII text is written as-is.
func (jw *JSONWriter) WriteAll(records []models.BatchRecord) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	data, err := EncodeJSON(records)
	if err != nil {
		return err
	}
	return writeFileAtomic(jw.path, data)
}

// Close is a no-op; every WriteAll leaves a complete file behind.
func (jw *JSONWriter) Close() error {
	return nil
}

// Validate ensures the JSON file has data.
func (jw *JSONWriter) Validate() error {
	return validateNonEmpty(jw.path, "json")
}

// EncodeJSON renders records the way JSONWriter stores them.
func EncodeJSON(records []models.BatchRecord) ([]byte, error) {
	if records == nil {
		records = []models.BatchRecord{}
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return nil, fmt.Errorf("encode json records: %w", err)
	}
	return buf.Bytes(), nil
}

// CSVWriter rewrites a CSV file with a header row on every WriteAll.
type CSVWriter struct {
	path string
	mu   sync.Mutex
}

// NewCSVWriter prepares the output directory for filename.
func NewCSVWriter(filename string) (*CSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}
	return &CSVWriter{path: filename}, nil
}

// WriteAll replaces the file with records.
func (cw *CSVWriter) WriteAll(records []models.BatchRecord) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.Itoa(r.BatchID),
			r.Category,
			r.ProductName,
			r.ProductImage,
			r.StoreName,
			r.ProductLink,
			r.Price,
			r.UnitPrice,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv records: %w", err)
	}
	return writeFileAtomic(cw.path, buf.Bytes())
}

// Close is a no-op; every WriteAll leaves a complete file behind.
func (cw *CSVWriter) Close() error {
	return nil
}

// Validate ensures the file has content besides the header.
func (cw *CSVWriter) Validate() error {
	return validateNonEmpty(cw.path, "csv")
}

// writeFileAtomic writes data next to path and renames it into place, so
// readers see either the previous or the new dataset, never a partial one.
func writeFileAtomic(path string, data []byte) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

func validateNonEmpty(path, kind string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s file: %w", kind, err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("%s file is empty", kind)
	}
	return nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
