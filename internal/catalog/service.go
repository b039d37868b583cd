package catalog

import (
	"context"
	gerrors "errors"
	"fmt"

	"github.com/jmarchetti/storefront-backend/pkg/cache"
	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	pkgerrors "github.com/jmarchetti/storefront-backend/pkg/errors"
	"github.com/jmarchetti/storefront-backend/pkg/logger"
	"github.com/jmarchetti/storefront-backend/pkg/metrics"
	"github.com/jmarchetti/storefront-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Service exposes the read-heavy catalog operations plus the admin mutations
// that must keep the cache coherent.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, productID int64) (*ProductDTO, error)
	Categories(ctx context.Context) ([]CategoryDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateStock(ctx context.Context, productID int64, quantity int) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID int64) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name          string
	CategoryID    int64
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	ImageURL      string
}

type cacheStore interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
}

type productInvalidator interface {
	InvalidateProducts(ctx context.Context, productIDs ...int64) error
}

type service struct {
	repo        *Repository
	store       cacheStore
	invalidator productInvalidator
	logg        *logger.Logger
	cacheStats  *metrics.CacheMetrics
	pageSize    int
	group       singleflight.Group
}

// NewService constructs a catalog service instance. cacheStats may be nil.
func NewService(repo *Repository, store cacheStore, invalidator productInvalidator, logg *logger.Logger, cacheStats *metrics.CacheMetrics, pageSize int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if invalidator == nil {
		return nil, fmt.Errorf("cache invalidator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if pageSize <= 0 {
		pageSize = pagination.DefaultPerPage
	}
	return &service{
		repo:        repo,
		store:       store,
		invalidator: invalidator,
		logg:        logg,
		cacheStats:  cacheStats,
		pageSize:    pageSize,
	}, nil
}

// List returns one catalog page, serving from the cache when the exact
// filter/sort/page tuple has been seen within the TTL. Concurrent misses on
// the same key collapse into a single DB read.
func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	key := s.listKey(input)

	var cached ListResult
	hit, err := s.store.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "cache read failed, falling back to database")
	} else if hit {
		s.cacheStats.IncHit("products")
		return &cached, nil
	}
	s.cacheStats.IncMiss("products")

	value, err, _ := s.group.Do(key, func() (any, error) {
		rows, total, err := s.repo.List(ctx, input, s.pageSize)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing products")
		}

		products := make([]ProductDTO, 0, len(rows))
		for _, row := range rows {
			products = append(products, toProductDTO(row))
		}
		result := &ListResult{
			Products: products,
			Meta: pagination.Build(
				pagination.Params{Page: input.Page, PerPage: s.pageSize},
				len(products),
				total,
			),
		}

		if err := s.store.SetJSON(ctx, key, result); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "cache write failed")
		}
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*ListResult), nil
}

// Get returns one product with its category, cached per product ID.
func (s *service) Get(ctx context.Context, productID int64) (*ProductDTO, error) {
	key := cache.ProductKey(productID)

	var cached ProductDTO
	hit, err := s.store.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "cache read failed, falling back to database")
	} else if hit {
		s.cacheStats.IncHit("product")
		return &cached, nil
	}
	s.cacheStats.IncMiss("product")

	value, err, _ := s.group.Do(key, func() (any, error) {
		product, err := s.repo.FindByID(ctx, productID)
		if err != nil {
			if gerrors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
		}

		dto := toProductDTO(*product)
		if err := s.store.SetJSON(ctx, key, &dto); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", key), "cache write failed")
		}
		return &dto, nil
	})
	if err != nil {
		return nil, err
	}
	return value.(*ProductDTO), nil
}

// Categories returns all categories ordered by name, cached under one key.
func (s *service) Categories(ctx context.Context) ([]CategoryDTO, error) {
	var cached []CategoryDTO
	hit, err := s.store.GetJSON(ctx, cache.CategoriesKey, &cached)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "cache_key", cache.CategoriesKey), "cache read failed, falling back to database")
	} else if hit {
		s.cacheStats.IncHit("categories")
		return cached, nil
	}
	s.cacheStats.IncMiss("categories")

	value, err, _ := s.group.Do(cache.CategoriesKey, func() (any, error) {
		rows, err := s.repo.ListCategories(ctx)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing categories")
		}

		categories := make([]CategoryDTO, 0, len(rows))
		for _, row := range rows {
			categories = append(categories, toCategoryDTO(row))
		}
		if err := s.store.SetJSON(ctx, cache.CategoriesKey, categories); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "cache_key", cache.CategoriesKey), "cache write failed")
		}
		return categories, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]CategoryDTO), nil
}

// CreateProduct inserts a new product and invalidates listing caches so the
// next page read sees it.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if input.StockQuantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}

	product := &models.Product{
		Name:          input.Name,
		CategoryID:    input.CategoryID,
		Description:   input.Description,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		ImageURL:      input.ImageURL,
	}
	if _, err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating product")
	}

	s.invalidateProducts(ctx, product.ID)

	dto := toProductDTO(*product)
	return &dto, nil
}

// UpdateStock writes a new stock quantity for the product and invalidates
// product caches only when the value actually changed.
func (s *service) UpdateStock(ctx context.Context, productID int64, quantity int) (*ProductDTO, error) {
	if quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if gerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}

	if product.StockQuantity == quantity {
		dto := toProductDTO(*product)
		return &dto, nil
	}

	if err := s.repo.SetStock(ctx, productID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating stock")
	}
	product.StockQuantity = quantity

	s.invalidateProducts(ctx, productID)

	dto := toProductDTO(*product)
	return &dto, nil
}

// DeleteProduct removes a product and invalidates its cache entries.
func (s *service) DeleteProduct(ctx context.Context, productID int64) error {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if gerrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}

	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting product")
	}

	s.invalidateProducts(ctx, productID)
	return nil
}

func (s *service) invalidateProducts(ctx context.Context, productIDs ...int64) {
	if err := s.invalidator.InvalidateProducts(ctx, productIDs...); err != nil {
		s.logg.Error(ctx, "cache invalidation failed", err)
	}
}

func (s *service) listKey(input ListInput) string {
	params := cache.ListKeyParams{
		Search:    input.Filters.Search,
		Category:  input.Filters.CategorySlug,
		SortBy:    input.SortBy,
		SortOrder: input.SortOrder,
		Page:      input.Page,
	}
	if input.Filters.MinPrice != nil {
		params.MinPrice = input.Filters.MinPrice.String()
	}
	if input.Filters.MaxPrice != nil {
		params.MaxPrice = input.Filters.MaxPrice.String()
	}
	return cache.ListKey(params)
}
