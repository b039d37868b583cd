package cache

import (
	"context"
	"errors"

	"go.uber.org/multierr"
)

// Sort fields and orders used to enumerate common listing keys when the
// backend cannot delete by pattern.
var (
	fallbackSortFields = []string{"name", "price", "created_at"}
	fallbackSortOrders = []string{"asc", "desc"}
)

// ListPurger clears the filtered-listing key space. The key space is
// unbounded (arbitrary search strings), so implementations trade precision
// for reach; see PatternPurger and EnumerationPurger.
type ListPurger interface {
	PurgeLists(ctx context.Context) error
}

// PatternPurger deletes every filtered-listing key via a keyspace scan.
// Preferred whenever the backend supports pattern scans.
type PatternPurger struct {
	backend PatternBackend
}

// NewPatternPurger builds a scan-based purger.
func NewPatternPurger(backend PatternBackend) (*PatternPurger, error) {
	if backend == nil {
		return nil, errors.New("pattern backend required")
	}
	return &PatternPurger{backend: backend}, nil
}

func (p *PatternPurger) PurgeLists(ctx context.Context) error {
	keys, err := p.backend.ScanKeys(ctx, ListKeyPattern)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return p.backend.Del(ctx, keys...)
}

// EnumerationPurger is the bounded fallback: it clears the unfiltered
// listing keys for every sort combination over the first N pages. Rarely-hit
// filtered entries may stay briefly stale until their TTL expires.
type EnumerationPurger struct {
	backend Backend
	pages   int
}

// NewEnumerationPurger builds the fallback purger covering the given number
// of pages per sort combination.
func NewEnumerationPurger(backend Backend, pages int) (*EnumerationPurger, error) {
	if backend == nil {
		return nil, errors.New("cache backend required")
	}
	if pages <= 0 {
		pages = 20
	}
	return &EnumerationPurger{backend: backend, pages: pages}, nil
}

func (p *EnumerationPurger) PurgeLists(ctx context.Context) error {
	keys := make([]string, 0, len(fallbackSortFields)*len(fallbackSortOrders)*p.pages)
	for _, sortBy := range fallbackSortFields {
		for _, sortOrder := range fallbackSortOrders {
			for page := 1; page <= p.pages; page++ {
				keys = append(keys, ListKey(ListKeyParams{
					SortBy:    sortBy,
					SortOrder: sortOrder,
					Page:      page,
				}))
			}
		}
	}
	return p.backend.Del(ctx, keys...)
}

// Invalidator maps product mutations onto the cache keys that must go.
type Invalidator struct {
	backend Backend
	purger  ListPurger
}

// NewInvalidator wires the invalidator. The purger is chosen at startup by
// backend capability, not probed at call time.
func NewInvalidator(backend Backend, purger ListPurger) (*Invalidator, error) {
	if backend == nil {
		return nil, errors.New("cache backend required")
	}
	if purger == nil {
		return nil, errors.New("list purger required")
	}
	return &Invalidator{backend: backend, purger: purger}, nil
}

// InvalidateProducts purges the per-product entries for every given id, the
// categories listing, and the whole filtered-listing key space. Failures on
// independent purges are collected rather than short-circuiting, so one bad
// key cannot shield the rest from invalidation.
func (i *Invalidator) InvalidateProducts(ctx context.Context, productIDs ...int64) error {
	keys := make([]string, 0, len(productIDs)+1)
	for _, id := range productIDs {
		keys = append(keys, ProductKey(id))
	}
	keys = append(keys, CategoriesKey)

	var errs error
	if err := i.backend.Del(ctx, keys...); err != nil {
		errs = multierr.Append(errs, err)
	}
	if err := i.purger.PurgeLists(ctx); err != nil {
		errs = multierr.Append(errs, err)
	}
	return errs
}
