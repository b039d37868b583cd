package checkout

import (
	"context"
	"fmt"

	"github.com/jmarchetti/storefront-backend/internal/cart"
	"github.com/jmarchetti/storefront-backend/internal/orders"
	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"github.com/jmarchetti/storefront-backend/pkg/enums"
	pkgerrors "github.com/jmarchetti/storefront-backend/pkg/errors"
	"github.com/jmarchetti/storefront-backend/pkg/logger"
	"github.com/jmarchetti/storefront-backend/pkg/stock"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const msgEmptyCart = "Your cart is empty"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type stockAlerter interface {
	EnqueueLowStock(product models.Product)
}

type cacheInvalidator interface {
	InvalidateProducts(ctx context.Context, productIDs ...int64) error
}

// Service converts a cart into an order atomically.
type Service interface {
	Execute(ctx context.Context, userID int64) (*Result, error)
	ValidateCart(ctx context.Context, userID int64) ([]Shortfall, error)
}

// Result is the outcome of a successful checkout.
type Result struct {
	Order *models.Order   `json:"order"`
	Total decimal.Decimal `json:"total"`
}

// Shortfall reports one cart line whose quantity exceeds current stock.
type Shortfall struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type service struct {
	tx          txRunner
	repo        *Repository
	cartRepo    *cart.Repository
	ordersRepo  *orders.Repository
	alerter     stockAlerter
	invalidator cacheInvalidator
	logg        *logger.Logger
	threshold   int
}

// NewService builds the checkout service.
func NewService(
	tx txRunner,
	repo *Repository,
	cartRepo *cart.Repository,
	ordersRepo *orders.Repository,
	alerter stockAlerter,
	invalidator cacheInvalidator,
	logg *logger.Logger,
	lowStockThreshold int,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("checkout repository required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if alerter == nil {
		return nil, fmt.Errorf("stock alerter required")
	}
	if invalidator == nil {
		return nil, fmt.Errorf("cache invalidator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:          tx,
		repo:        repo,
		cartRepo:    cartRepo,
		ordersRepo:  ordersRepo,
		alerter:     alerter,
		invalidator: invalidator,
		logg:        logg,
		threshold:   lowStockThreshold,
	}, nil
}

// Execute turns the user's cart into a completed order. All writes happen in
// one transaction: stock validation against locked rows, order creation,
// guarded stock decrements, and cart consumption commit together or not at
// all. Notifications and cache invalidation run only after the commit.
func (s *service) Execute(ctx context.Context, userID int64) (*Result, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing cart")
	}
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, msgEmptyCart)
	}

	var (
		order    *models.Order
		total    decimal.Decimal
		lowStock []models.Product
		touched  []int64
	)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		// Re-read inside the transaction: the pre-check above ran without
		// locks and another checkout may have consumed lines since.
		lines, err := cartRepo.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, msgEmptyCart)
		}

		productIDs := make([]int64, 0, len(lines))
		for _, line := range lines {
			productIDs = append(productIDs, line.ProductID)
		}

		locked, err := s.repo.LockProducts(ctx, tx, productIDs)
		if err != nil {
			return err
		}

		total = decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(lines))
		lineIDs := make([]int64, 0, len(lines))
		lowStock = lowStock[:0]
		touched = touched[:0]

		for _, line := range lines {
			product, ok := locked[line.ProductID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product no longer available")
			}
			if err := stock.ValidateLine(product.Name, line.Quantity, product.StockQuantity); err != nil {
				return err
			}

			total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
			orderItems = append(orderItems, models.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			})
			lineIDs = append(lineIDs, line.ID)
		}

		order = &models.Order{
			UserID:      userID,
			TotalAmount: total,
			Status:      enums.OrderStatusCompleted,
		}
		if _, err := ordersRepo.Create(ctx, order); err != nil {
			return err
		}
		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := ordersRepo.CreateItems(ctx, orderItems); err != nil {
			return err
		}

		for _, line := range lines {
			product := locked[line.ProductID]
			applied, err := s.repo.DecrementStock(ctx, tx, product.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !applied {
				return pkgerrors.New(pkgerrors.CodeStock,
					fmt.Sprintf("Insufficient stock for %s", product.Name))
			}

			remaining := product.StockQuantity - line.Quantity
			if stock.IsLowStock(remaining, s.threshold) {
				snapshot := product
				snapshot.StockQuantity = remaining
				lowStock = append(lowStock, snapshot)
			}
			touched = append(touched, product.ID)
		}

		return cartRepo.DeleteByIDs(ctx, lineIDs)
	})
	if err != nil {
		return nil, err
	}

	// Post-commit only: a rolled-back checkout must never alert or purge.
	for _, product := range lowStock {
		s.alerter.EnqueueLowStock(product)
	}
	if err := s.invalidator.InvalidateProducts(ctx, touched...); err != nil {
		s.logg.Error(ctx, "cache invalidation after checkout failed", err)
	}

	order.Items = nil
	loaded, err := s.ordersRepo.FindByID(ctx, order.ID)
	if err == nil {
		order = loaded
	}

	return &Result{Order: order, Total: total}, nil
}

// ValidateCart reports per-line shortfalls without locking or mutating
// anything. The numbers are advisory: checkout re-validates under locks.
func (s *service) ValidateCart(ctx context.Context, userID int64) ([]Shortfall, error) {
	items, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing cart")
	}

	shortfalls := make([]Shortfall, 0)
	for _, item := range items {
		if item.Product == nil {
			shortfalls = append(shortfalls, Shortfall{
				ProductID: item.ProductID,
				Name:      "unavailable product",
				Requested: item.Quantity,
				Available: 0,
			})
			continue
		}
		if item.Quantity > item.Product.StockQuantity {
			shortfalls = append(shortfalls, Shortfall{
				ProductID: item.ProductID,
				Name:      item.Product.Name,
				Requested: item.Quantity,
				Available: item.Product.StockQuantity,
			})
		}
	}
	return shortfalls, nil
}
