package orders

import (
	"context"
	"time"

	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"github.com/jmarchetti/storefront-backend/pkg/enums"
	"github.com/jmarchetti/storefront-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository wires together order persistence helpers.
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

// Create inserts a new order row.
func (r *Repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// CreateItems inserts the order's line items in one statement.
func (r *Repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

// ListByUser returns one page of the user's orders, newest first, with items
// and their products preloaded.
func (r *Repository) ListByUser(ctx context.Context, userID int64, params pagination.Params) ([]models.Order, int64, error) {
	qb := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := qb.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	normalized := pagination.Normalize(params)

	var rows []models.Order
	err := qb.
		Preload("Items").
		Preload("Items.Product").
		Order("created_at DESC").
		Offset(normalized.Offset()).
		Limit(normalized.PerPage).
		Find(&rows).
		Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// FindByID loads one order with its items and products.
func (r *Repository) FindByID(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Product").
		First(&order, "id = ?", orderID).
		Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatus transitions an order to the given status.
func (r *Repository) UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).
		Error
}

// SalesSummary aggregates completed orders for one calendar day.
type SalesSummary struct {
	Date       time.Time
	OrderCount int64
	Revenue    decimal.Decimal
	Products   []ProductSales
}

// ProductSales is the per-product slice of a daily summary.
type ProductSales struct {
	ProductID int64
	Name      string
	Units     int64
	Revenue   decimal.Decimal
}

// Summarize builds the sales summary for the day containing the given time.
// Read-only: it never mutates order rows.
func (r *Repository) Summarize(ctx context.Context, day time.Time) (*SalesSummary, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	type totalsRow struct {
		OrderCount int64
		Revenue    decimal.Decimal
	}
	var totals totalsRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COUNT(*) AS order_count, COALESCE(SUM(total_amount), 0) AS revenue").
		Where("status = ?", enums.OrderStatusCompleted).
		Where("created_at >= ? AND created_at < ?", start, end).
		Scan(&totals).
		Error
	if err != nil {
		return nil, err
	}

	type productRow struct {
		ProductID int64
		Name      string
		Units     int64
		Revenue   decimal.Decimal
	}
	var rows []productRow
	err = r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.product_id, products.name, SUM(order_items.quantity) AS units, SUM(order_items.quantity * order_items.price) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("LEFT JOIN products ON products.id = order_items.product_id").
		Where("orders.status = ?", enums.OrderStatusCompleted).
		Where("orders.created_at >= ? AND orders.created_at < ?", start, end).
		Group("order_items.product_id, products.name").
		Order("units DESC").
		Scan(&rows).
		Error
	if err != nil {
		return nil, err
	}

	summary := &SalesSummary{
		Date:       start,
		OrderCount: totals.OrderCount,
		Revenue:    totals.Revenue,
		Products:   make([]ProductSales, 0, len(rows)),
	}
	for _, row := range rows {
		summary.Products = append(summary.Products, ProductSales{
			ProductID: row.ProductID,
			Name:      row.Name,
			Units:     row.Units,
			Revenue:   row.Revenue,
		})
	}
	return summary, nil
}
