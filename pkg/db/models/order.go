package models

import (
	"time"

	"github.com/jmarchetti/storefront-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Order is the immutable record produced by a successful checkout. Only the
// status may change after creation; items and totals never do.
type Order struct {
	ID          int64             `gorm:"column:id;primaryKey;autoIncrement"`
	UserID      int64             `gorm:"column:user_id;not null;index"`
	TotalAmount decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status      enums.OrderStatus `gorm:"column:status;not null;default:'completed'"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
