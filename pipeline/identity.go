package pipeline

import (
	"strings"

	"github.com/aluiziolira/go-scrape-prices/models"
)

// ProductKey identifies a product independently of the store selling it.
type ProductKey struct {
	Name  string
	Image string
}

// KeyOf derives the identity key of an offer. Only the product name and image
// participate; store fields never do.
func KeyOf(offer models.StoreOffer) ProductKey {
	return ProductKey{
		Name:  strings.TrimSpace(offer.ProductName),
		Image: strings.TrimSpace(offer.ProductImage),
	}
}

// IdentityRegistry assigns batch ids in first-seen order starting at 1.
// It is not safe for concurrent use; Pipeline serializes access.
type IdentityRegistry struct {
	ids    map[ProductKey]int
	nextID int
}

// NewIdentityRegistry returns an empty registry.
func NewIdentityRegistry() *IdentityRegistry {
	return &IdentityRegistry{
		ids:    make(map[ProductKey]int),
		nextID: 1,
	}
}

// Resolve returns the batch id for offer, assigning the next id when its key
// has not been seen before.
func (r *IdentityRegistry) Resolve(offer models.StoreOffer) int {
	key := KeyOf(offer)
	if id, ok := r.Lookup(key); ok {
		return id
	}
	id := r.nextID
	r.ids[key] = id
	r.nextID++
	return id
}

// Lookup reports the id already assigned to key.
func (r *IdentityRegistry) Lookup(key ProductKey) (int, bool) {
	id, ok := r.ids[key]
	return id, ok
}

// Len returns the number of distinct products seen.
func (r *IdentityRegistry) Len() int {
	return len(r.ids)
}
