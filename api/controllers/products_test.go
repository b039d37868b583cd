package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/jmarchetti/storefront-backend/api/middleware"
	"github.com/jmarchetti/storefront-backend/internal/catalog"
	pkgerrors "github.com/jmarchetti/storefront-backend/pkg/errors"
	"github.com/jmarchetti/storefront-backend/pkg/pagination"
)

type stubCatalogService struct {
	list       *catalog.ListResult
	product    *catalog.ProductDTO
	categories []catalog.CategoryDTO
	err        error

	gotInput catalog.ListInput
}

func (s *stubCatalogService) List(ctx context.Context, input catalog.ListInput) (*catalog.ListResult, error) {
	s.gotInput = input
	return s.list, s.err
}

func (s *stubCatalogService) Get(ctx context.Context, productID int64) (*catalog.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubCatalogService) Categories(ctx context.Context) ([]catalog.CategoryDTO, error) {
	return s.categories, nil
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, input catalog.CreateProductInput) (*catalog.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubCatalogService) UpdateStock(ctx context.Context, productID int64, quantity int) (*catalog.ProductDTO, error) {
	return s.product, s.err
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, productID int64) error {
	return s.err
}

func TestProductsIndexPayload(t *testing.T) {
	svc := &stubCatalogService{
		list: &catalog.ListResult{
			Products: []catalog.ProductDTO{{ID: 1, Name: "Trail Mix", Price: decimal.RequireFromString("7.99")}},
			Meta:     pagination.Metadata{CurrentPage: 2, PerPage: 10, Total: 25, LastPage: 3, From: 11, To: 11},
		},
		categories: []catalog.CategoryDTO{{ID: 1, Name: "Snacks", Slug: "snacks"}},
	}
	handler := ProductsIndex(svc, stubCartService{count: 3}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?search=trail&category=snacks&sort_by=price&sort_order=asc&page=2", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), 7))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	if svc.gotInput.Filters.Search != "trail" || svc.gotInput.Filters.CategorySlug != "snacks" {
		t.Fatalf("filters not forwarded: %+v", svc.gotInput.Filters)
	}
	if svc.gotInput.SortBy != catalog.SortByPrice || svc.gotInput.SortOrder != catalog.SortOrderAsc {
		t.Fatalf("sort not forwarded: %s %s", svc.gotInput.SortBy, svc.gotInput.SortOrder)
	}
	if svc.gotInput.Page != 2 {
		t.Fatalf("page not forwarded: %d", svc.gotInput.Page)
	}

	var envelope struct {
		Data productListResponse `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Products) != 1 || envelope.Data.Products[0].Name != "Trail Mix" {
		t.Fatalf("unexpected products: %+v", envelope.Data.Products)
	}
	if len(envelope.Data.Categories) != 1 {
		t.Fatalf("expected categories in payload")
	}
	if envelope.Data.CartCount != 3 {
		t.Fatalf("expected cart count 3 got %d", envelope.Data.CartCount)
	}
	if envelope.Data.Meta.Total != 25 {
		t.Fatalf("unexpected meta total %d", envelope.Data.Meta.Total)
	}
	if envelope.Data.Filters.SortBy != catalog.SortByPrice {
		t.Fatalf("unexpected active sort %s", envelope.Data.Filters.SortBy)
	}
}

func TestProductsIndexDefaultsUnknownSort(t *testing.T) {
	svc := &stubCatalogService{list: &catalog.ListResult{}}
	handler := ProductsIndex(svc, stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?sort_by=sneaky&sort_order=sideways", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), 7))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotInput.SortBy != catalog.SortByCreatedAt || svc.gotInput.SortOrder != catalog.SortOrderDesc {
		t.Fatalf("expected default sort, got %s %s", svc.gotInput.SortBy, svc.gotInput.SortOrder)
	}
}

func TestProductsIndexRejectsBadPrice(t *testing.T) {
	handler := ProductsIndex(&stubCatalogService{}, stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?min_price=notanumber", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), 7))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestProductShowNotFound(t *testing.T) {
	handler := ProductShow(&stubCatalogService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/99", nil)
	req = withURLParam(req, "productId", "99")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestProductShowSuccess(t *testing.T) {
	product := &catalog.ProductDTO{ID: 4, Name: "Trail Mix", Price: decimal.RequireFromString("7.99")}
	handler := ProductShow(&stubCatalogService{product: product}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/4", nil)
	req = withURLParam(req, "productId", "4")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data catalog.ProductDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.ID != 4 {
		t.Fatalf("unexpected product id %d", envelope.Data.ID)
	}
}
