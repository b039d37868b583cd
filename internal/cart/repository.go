package cart

import (
	"context"

	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository wires together cart persistence helpers.
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

// ListByUser returns the user's cart lines, newest first, with products
// preloaded. A line whose product has been deleted keeps a nil Product.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]models.CartItem, error) {
	var rows []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).
		Error
	return rows, err
}

// FindByID loads a single cart line without associations.
func (r *Repository) FindByID(ctx context.Context, itemID int64) (*models.CartItem, error) {
	var item models.CartItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByUserAndProduct loads the user's line for a product, if any.
func (r *Repository) FindByUserAndProduct(ctx context.Context, userID, productID int64) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		First(&item, "user_id = ? AND product_id = ?", userID, productID).
		Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Create inserts a new cart line.
func (r *Repository) Create(ctx context.Context, item *models.CartItem) (*models.CartItem, error) {
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateQuantity overwrites the quantity on an existing line.
func (r *Repository) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("id = ?", itemID).
		Update("quantity", quantity).
		Error
}

// Delete removes a cart line by ID.
func (r *Repository) Delete(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).Where("id = ?", itemID).Delete(&models.CartItem{}).Error
}

// ClearUser removes every line in the user's cart.
func (r *Repository) ClearUser(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

// DeleteByIDs removes the named lines. Used by checkout inside its
// transaction so only the consumed lines disappear.
func (r *Repository) DeleteByIDs(ctx context.Context, itemIDs []int64) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("id IN ?", itemIDs).Delete(&models.CartItem{}).Error
}

// CountForUser returns the summed quantity across the user's cart lines.
func (r *Repository) CountForUser(ctx context.Context, userID int64) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("user_id = ?", userID).
		Select("SUM(quantity)").
		Scan(&total).
		Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}
