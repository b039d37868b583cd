package cache

import (
	"fmt"
	"strings"
)

const (
	// CategoriesKey caches the name-ordered category listing.
	CategoriesKey = "categories:all"

	// ListKeyPattern matches every filtered product listing entry.
	ListKeyPattern = "products:filtered:*"

	productKeyPrefix = "product:"
	listKeyPrefix    = "products:filtered"

	// unsetPlaceholder stands in for absent filter fields so that an unset
	// filter and an empty-string filter collide to the same key.
	unsetPlaceholder = "none"
)

// ListKeyParams is the exact filter/sort/page tuple that identifies one
// cached catalog page.
type ListKeyParams struct {
	Search    string
	Category  string
	MinPrice  string
	MaxPrice  string
	SortBy    string
	SortOrder string
	Page      int
}

// ListKey builds the deterministic cache key for a filtered listing page.
// Field order is fixed; the key is stable across process restarts.
func ListKey(p ListKeyParams) string {
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s:%s:%d",
		listKeyPrefix,
		orPlaceholder(p.Search),
		orPlaceholder(p.Category),
		orPlaceholder(p.MinPrice),
		orPlaceholder(p.MaxPrice),
		p.SortBy,
		p.SortOrder,
		p.Page,
	)
}

// ProductKey builds the cache key for a single product entry.
func ProductKey(productID int64) string {
	return fmt.Sprintf("%s%d", productKeyPrefix, productID)
}

func orPlaceholder(value string) string {
	if strings.TrimSpace(value) == "" {
		return unsetPlaceholder
	}
	return value
}
