package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the one shared, mutable entity referenced by live carts and
// historical orders. Order items copy its price at purchase rather than
// joining it live.
type Product struct {
	ID            int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name          string          `gorm:"column:name;not null"`
	CategoryID    int64           `gorm:"column:category_id;not null;index"`
	Description   string          `gorm:"column:description"`
	Price         decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	StockQuantity int             `gorm:"column:stock_quantity;not null;default:0"`
	ImageURL      string          `gorm:"column:image_url"`
	Category      *Category       `gorm:"foreignKey:CategoryID"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// IsLowStock reports whether stock sits in the low-stock band: scarce but
// still sellable. Zero stock is out of stock, not low stock.
func (p Product) IsLowStock(threshold int) bool {
	return p.StockQuantity > 0 && p.StockQuantity <= threshold
}

// IsOutOfStock reports whether the product cannot be sold at all.
func (p Product) IsOutOfStock() bool {
	return p.StockQuantity <= 0
}
