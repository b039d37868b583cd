package orders

import (
	"context"
	gerrors "errors"
	"fmt"
	"time"

	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"github.com/jmarchetti/storefront-backend/pkg/enums"
	pkgerrors "github.com/jmarchetti/storefront-backend/pkg/errors"
	"github.com/jmarchetti/storefront-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service exposes order history reads and manual status transitions.
type Service interface {
	List(ctx context.Context, userID int64, params pagination.Params) (*ListResult, error)
	Get(ctx context.Context, userID, orderID int64) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error
	DailySummary(ctx context.Context, day time.Time) (*SalesSummary, error)
}

// ListResult is one page of a user's order history.
type ListResult struct {
	Orders []models.Order      `json:"orders"`
	Meta   pagination.Metadata `json:"meta"`
}

type service struct {
	repo *Repository
}

// NewService constructs an orders service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

// List returns one page of the user's orders, newest first.
func (s *service) List(ctx context.Context, userID int64, params pagination.Params) (*ListResult, error) {
	rows, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return &ListResult{
		Orders: rows,
		Meta:   pagination.Build(params, len(rows), total),
	}, nil
}

// Get loads one order owned by the caller.
func (s *service) Get(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if gerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")
	}
	return order, nil
}

// UpdateStatus transitions an order. Checkout never calls this; it exists for
// manual cancellations and refunds.
func (s *service) UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error {
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", status))
	}
	if _, err := s.repo.FindByID(ctx, orderID); err != nil {
		if gerrors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	if err := s.repo.UpdateStatus(ctx, orderID, status); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
	}
	return nil
}

// DailySummary aggregates the day's completed orders for the digest.
func (s *service) DailySummary(ctx context.Context, day time.Time) (*SalesSummary, error) {
	summary, err := s.repo.Summarize(ctx, day)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarizing sales")
	}
	return summary, nil
}
