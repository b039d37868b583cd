package controllers

import (
	"net/http"

	"github.com/jmarchetti/storefront-backend/api/middleware"
	"github.com/jmarchetti/storefront-backend/api/responses"
	"github.com/jmarchetti/storefront-backend/api/validators"
	"github.com/jmarchetti/storefront-backend/internal/cart"
	"github.com/jmarchetti/storefront-backend/internal/catalog"
	pkgerrors "github.com/jmarchetti/storefront-backend/pkg/errors"
	"github.com/jmarchetti/storefront-backend/pkg/logger"
	"github.com/jmarchetti/storefront-backend/pkg/pagination"
)

type productListResponse struct {
	Products   []catalog.ProductDTO  `json:"products"`
	Meta       pagination.Metadata   `json:"meta"`
	Filters    activeFiltersResponse `json:"filters"`
	Categories []catalog.CategoryDTO `json:"categories"`
	CartCount  int                   `json:"cart_count"`
}

type activeFiltersResponse struct {
	Search    string `json:"search,omitempty"`
	Category  string `json:"category,omitempty"`
	MinPrice  string `json:"min_price,omitempty"`
	MaxPrice  string `json:"max_price,omitempty"`
	SortBy    string `json:"sort_by"`
	SortOrder string `json:"sort_order"`
}

// ProductsIndex serves the storefront listing page payload: a filtered page
// of products plus the category list and the caller's cart badge count.
func ProductsIndex(svc catalog.Service, cartSvc cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		input, err := validators.ParseProductListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		categories, err := svc.Categories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		cartCount := 0
		if cartSvc != nil {
			if userID := middleware.UserIDFromContext(r.Context()); userID > 0 {
				count, err := cartSvc.Count(r.Context(), userID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				cartCount = count
			}
		}

		filters := activeFiltersResponse{
			Search:    input.Filters.Search,
			Category:  input.Filters.CategorySlug,
			SortBy:    input.SortBy,
			SortOrder: input.SortOrder,
		}
		if input.Filters.MinPrice != nil {
			filters.MinPrice = input.Filters.MinPrice.String()
		}
		if input.Filters.MaxPrice != nil {
			filters.MaxPrice = input.Filters.MaxPrice.String()
		}

		responses.WriteSuccess(w, productListResponse{
			Products:   result.Products,
			Meta:       result.Meta,
			Filters:    filters,
			Categories: categories,
			CartCount:  cartCount,
		})
	}
}

// ProductShow serves a single product detail.
func ProductShow(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := parseIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}
