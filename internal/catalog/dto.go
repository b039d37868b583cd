package catalog

import (
	"time"

	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"github.com/jmarchetti/storefront-backend/pkg/pagination"
	"github.com/shopspring/decimal"
)

// SortField is a whitelisted product sort column.
const (
	SortByName      = "name"
	SortByPrice     = "price"
	SortByCreatedAt = "created_at"

	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// ListFilters carries the sanitized catalog filters. Nil pointer fields mean
// the filter is not applied.
type ListFilters struct {
	Search       string
	CategorySlug string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
}

// ListInput is the full query for a catalog page.
type ListInput struct {
	Filters   ListFilters
	SortBy    string
	SortOrder string
	Page      int
}

// ProductDTO is the read-model shape returned by catalog lookups. It is
// JSON-encodable so it can round-trip through the cache.
type ProductDTO struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      string          `json:"image_url,omitempty"`
	Category      *CategoryDTO    `json:"category,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// CategoryDTO is the read-model shape for a category.
type CategoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// ListResult is one catalog page plus its pagination metadata.
type ListResult struct {
	Products []ProductDTO        `json:"products"`
	Meta     pagination.Metadata `json:"meta"`
}

func toProductDTO(p models.Product) ProductDTO {
	dto := ProductDTO{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		CreatedAt:     p.CreatedAt,
	}
	if p.Category != nil {
		c := toCategoryDTO(*p.Category)
		dto.Category = &c
	}
	return dto
}

func toCategoryDTO(c models.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug}
}
