package catalog

import (
	"context"
	"strings"

	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"github.com/jmarchetti/storefront-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository wires together catalog persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// List returns one product page matching the filters plus the total match
// count. Each filter is an independent predicate; unset filters are skipped.
func (r *Repository) List(ctx context.Context, input ListInput, pageSize int) ([]models.Product, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Product{})

	filter := input.Filters
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("LOWER(products.name) LIKE ?", pattern)
	}
	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		qb = qb.Where("category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", slug))
	}
	if filter.MinPrice != nil {
		qb = qb.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		qb = qb.Where("price <= ?", *filter.MaxPrice)
	}

	var total int64
	if err := qb.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params := pagination.Normalize(pagination.Params{Page: input.Page, PerPage: pageSize})

	var rows []models.Product
	err := qb.
		Preload("Category").
		Order(orderClause(input.SortBy, input.SortOrder)).
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// orderClause maps the sanitized sort inputs onto a SQL ORDER BY. Inputs are
// whitelisted again here so the clause can never carry raw user text.
func orderClause(sortBy, sortOrder string) string {
	column := SortByCreatedAt
	switch sortBy {
	case SortByName, SortByPrice, SortByCreatedAt:
		column = sortBy
	}
	direction := "DESC"
	if sortOrder == SortOrderAsc {
		direction = "ASC"
	}
	return column + " " + direction
}

// FindByID loads the product with its category.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, "products.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var rows []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error
	return rows, err
}

// CreateProduct inserts a new product row.
func (r *Repository) CreateProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// SetStock overwrites the stock quantity for a product.
func (r *Repository) SetStock(ctx context.Context, productID int64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock_quantity", quantity).
		Error
}

// DeleteProduct removes a product by ID.
func (r *Repository) DeleteProduct(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{}).Error
}
