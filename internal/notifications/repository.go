package notifications

import (
	"context"

	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"github.com/jmarchetti/storefront-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository resolves who operational mail goes to.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AdminRecipient returns the first admin user's email address, or empty when
// no admin exists.
func (r *Repository) AdminRecipient(ctx context.Context) (string, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("role = ?", enums.UserRoleAdmin).
		Order("id ASC").
		First(&user).
		Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return user.Email, nil
}
