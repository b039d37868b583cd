package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jmarchetti/storefront-backend/internal/catalog"
	pkgerrors "github.com/jmarchetti/storefront-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

func parseQueryDecimal(r *http.Request, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a decimal number").WithDetails(map[string]any{"field": key})
	}
	if value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must not be negative").WithDetails(map[string]any{"field": key})
	}
	return &value, nil
}

// ParseProductListQuery sanitizes catalog filter, sort, and page parameters.
// Unknown sort columns and orders fall back to the defaults rather than erroring.
func ParseProductListQuery(r *http.Request) (catalog.ListInput, error) {
	input := catalog.ListInput{
		SortBy:    catalog.SortByCreatedAt,
		SortOrder: catalog.SortOrderDesc,
		Page:      1,
	}

	input.Filters.Search = SanitizeString(r.URL.Query().Get("search"), 255)
	input.Filters.CategorySlug = SanitizeString(r.URL.Query().Get("category"), 255)

	minPrice, err := parseQueryDecimal(r, "min_price")
	if err != nil {
		return catalog.ListInput{}, err
	}
	input.Filters.MinPrice = minPrice

	maxPrice, err := parseQueryDecimal(r, "max_price")
	if err != nil {
		return catalog.ListInput{}, err
	}
	input.Filters.MaxPrice = maxPrice

	switch strings.TrimSpace(r.URL.Query().Get("sort_by")) {
	case catalog.SortByName:
		input.SortBy = catalog.SortByName
	case catalog.SortByPrice:
		input.SortBy = catalog.SortByPrice
	}

	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("sort_order")), catalog.SortOrderAsc) {
		input.SortOrder = catalog.SortOrderAsc
	}

	page, err := ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return catalog.ListInput{}, err
	}
	input.Page = page

	return input, nil
}
