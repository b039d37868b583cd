package checkout

import (
	"context"
	"sort"

	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository holds the row-level stock operations checkout runs inside its
// transaction.
type Repository struct{}

// NewRepository builds the checkout repository.
func NewRepository() *Repository {
	return &Repository{}
}

// LockProducts re-reads the given products under FOR UPDATE so concurrent
// checkouts of the same product serialize. Rows are locked in ascending ID
// order to keep lock acquisition deadlock-free.
func (r *Repository) LockProducts(ctx context.Context, tx *gorm.DB, productIDs []int64) (map[int64]models.Product, error) {
	ids := append([]int64(nil), productIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	qb := tx.WithContext(ctx)
	if supportsRowLocks(tx) {
		qb = qb.Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate})
	}

	var rows []models.Product
	if err := qb.Where("id IN ?", ids).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	locked := make(map[int64]models.Product, len(rows))
	for _, row := range rows {
		locked[row.ID] = row
	}
	return locked, nil
}

// DecrementStock subtracts quantity from the product's stock iff enough stock
// remains. Returns false when the guard rejected the update.
func (r *Repository) DecrementStock(ctx context.Context, tx *gorm.DB, productID int64, quantity int) (bool, error) {
	result := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// supportsRowLocks reports whether the dialect understands SELECT FOR UPDATE.
// sqlite does not; its single-writer model serializes writes on its own.
func supportsRowLocks(tx *gorm.DB) bool {
	return tx.Dialector.Name() != "sqlite"
}
