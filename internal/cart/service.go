package cart

import (
	"context"
	gerrors "errors"
	"fmt"

	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"github.com/jmarchetti/storefront-backend/pkg/enums"
	pkgerrors "github.com/jmarchetti/storefront-backend/pkg/errors"
	"github.com/jmarchetti/storefront-backend/pkg/stock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgAdded   = "Product added to cart"
	msgUpdated = "Product quantity updated in cart"
)

// Service exposes per-user cart operations.
type Service interface {
	List(ctx context.Context, userID int64) (*View, error)
	Add(ctx context.Context, userID, productID int64, quantity int) (*AddResult, error)
	UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) (*models.CartItem, error)
	Remove(ctx context.Context, userID, itemID int64) error
	Count(ctx context.Context, userID int64) (int, error)
}

// View is the cart read model: lines newest first plus the decimal total.
type View struct {
	Items []models.CartItem `json:"items"`
	Total decimal.Decimal   `json:"total"`
	Count int               `json:"count"`
}

// AddResult reports how an add request landed: merged, capped, or a fresh
// line, with the message shown to the shopper.
type AddResult struct {
	Severity enums.Severity  `json:"severity"`
	Message  string          `json:"message"`
	Item     models.CartItem `json:"item"`
}

type productLoader interface {
	FindByID(ctx context.Context, id int64) (*models.Product, error)
}

type service struct {
	repo     *Repository
	products productLoader
}

// NewService constructs a cart service instance.
func NewService(repo *Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// List returns the cart with its total. Lines whose product has since been
// deleted stay visible but contribute nothing to the total.
func (s *service) List(ctx context.Context, userID int64) (*View, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing cart")
	}

	total := decimal.Zero
	count := 0
	for _, item := range items {
		count += item.Quantity
		if item.Product == nil {
			continue
		}
		total = total.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return &View{Items: items, Total: total, Count: count}, nil
}

// Add puts a product in the cart. A second add of the same product merges
// into the existing line; merges that overflow stock are capped with a
// warning, while a request that alone exceeds stock is rejected outright.
func (s *service) Add(ctx context.Context, userID, productID int64, quantity int) (*AddResult, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if gerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}

	existing, err := s.repo.FindByUserAndProduct(ctx, userID, productID)
	if err != nil && !gerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart line")
	}

	existingQty := 0
	if existing != nil {
		existingQty = existing.Quantity
	}

	decision := stock.Decide(quantity, existingQty, product.StockQuantity)
	if decision.Outcome == stock.Reject {
		return nil, pkgerrors.New(pkgerrors.CodeStock, decision.Message)
	}

	if existing == nil {
		item, err := s.repo.Create(ctx, &models.CartItem{
			UserID:    userID,
			ProductID: productID,
			Quantity:  decision.Quantity,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating cart line")
		}
		item.Product = product
		return buildAddResult(decision, msgAdded, *item), nil
	}

	if err := s.repo.UpdateQuantity(ctx, existing.ID, decision.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating cart line")
	}
	existing.Quantity = decision.Quantity
	existing.Product = product
	return buildAddResult(decision, msgUpdated, *existing), nil
}

func buildAddResult(decision stock.Decision, successMsg string, item models.CartItem) *AddResult {
	result := &AddResult{
		Severity: enums.SeveritySuccess,
		Message:  successMsg,
		Item:     item,
	}
	if decision.Outcome == stock.Adjust {
		result.Severity = enums.SeverityWarning
		result.Message = decision.Message
	}
	return result
}

// UpdateQuantity overwrites the quantity on a line owned by the caller.
func (s *service) UpdateQuantity(ctx context.Context, userID, itemID int64, quantity int) (*models.CartItem, error) {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.FindByID(ctx, item.ProductID)
	if err != nil {
		if gerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
	}

	if quantity > product.StockQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeStock, stock.MsgInsufficient)
	}

	if err := s.repo.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating cart line")
	}
	item.Quantity = quantity
	item.Product = product
	return item, nil
}

// Remove deletes a line owned by the caller.
func (s *service) Remove(ctx context.Context, userID, itemID int64) error {
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deleting cart line")
	}
	return nil
}

// Count returns the summed quantity of the user's cart, for view payloads.
func (s *service) Count(ctx context.Context, userID int64) (int, error) {
	count, err := s.repo.CountForUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting cart")
	}
	return count, nil
}

// ownedItem loads a line and enforces that the caller owns it before any
// mutation runs.
func (s *service) ownedItem(ctx context.Context, userID, itemID int64) (*models.CartItem, error) {
	item, err := s.repo.FindByID(ctx, itemID)
	if err != nil {
		if gerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading cart line")
	}
	if item.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "cart item belongs to another user")
	}
	return item, nil
}
