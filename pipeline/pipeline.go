package pipeline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aluiziolira/go-scrape-prices/models"
)

var (
	// ErrPipelineClosed is returned when Add is called after shutdown.
	ErrPipelineClosed = errors.New("pipeline: closed")
	// ErrPersistence wraps failures to write the dataset.
	ErrPersistence = errors.New("pipeline: persist dataset")
)

// DatasetWriter persists the complete dataset on every call to WriteAll.
type DatasetWriter interface {
	WriteAll(records []models.BatchRecord) error
	Close() error
	Validate() error
}

// Pipeline owns the identity registry and the ordered dataset. Add resolves
// batch ids, appends records and rewrites the dataset under one lock, so
// concurrent producers never interleave identity assignment or writes.
type Pipeline struct {
	writer   DatasetWriter
	registry *IdentityRegistry

	mu      sync.Mutex // guards everything below
	records []models.BatchRecord
	closed  bool
	err     error

	products int64
	writes   int64
}

// NewPipeline builds a pipeline writing through writer. A nil registry
// starts a fresh one.
func NewPipeline(writer DatasetWriter, registry *IdentityRegistry) *Pipeline {
	if registry == nil {
		registry = NewIdentityRegistry()
	}
	return &Pipeline{
		writer:   writer,
		registry: registry,
	}
}

// Add appends the offers of one extracted product under category and
// persists the whole dataset before returning.
func (p *Pipeline) Add(category string, offers []models.StoreOffer) ([]models.BatchRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	if p.closed {
		return nil, ErrPipelineClosed
	}

	added := make([]models.BatchRecord, 0, len(offers))
	for _, offer := range offers {
		record := models.BatchRecord{
			BatchID:    p.registry.Resolve(offer),
			Category:   category,
			StoreOffer: offer,
		}
		added = append(added, record)
	}
	p.records = append(p.records, added...)
	p.products++

	if err := p.persistLocked(); err != nil {
		return added, err
	}
	return added, nil
}

// Flush rewrites the current dataset without adding anything.
func (p *Pipeline) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	return p.persistLocked()
}

// Records returns a copy of the dataset in discovery order.
func (p *Pipeline) Records() []models.BatchRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.BatchRecord, len(p.records))
	copy(out, p.records)
	return out
}

// Close prevents further additions and closes the writer.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return p.err
	}
	p.closed = true
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return p.err
}

// Err returns the persistence error that stopped the pipeline, if any.
func (p *Pipeline) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// GetMetrics returns a snapshot of the internal counters.
func (p *Pipeline) GetMetrics() map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return map[string]interface{}{
		"processed_products": p.products,
		"records":            int64(len(p.records)),
		"batches":            int64(p.registry.Len()),
		"writes":             p.writes,
	}
}

func (p *Pipeline) persistLocked() error {
	if err := p.writer.WriteAll(p.records); err != nil {
		p.err = fmt.Errorf("%w: %w", ErrPersistence, err)
		return p.err
	}
	p.writes++
	return nil
}
