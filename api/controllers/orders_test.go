package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ordersvc "github.com/jmarchetti/storefront-backend/internal/orders"
	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	"github.com/jmarchetti/storefront-backend/pkg/enums"
	pkgerrors "github.com/jmarchetti/storefront-backend/pkg/errors"
	"github.com/jmarchetti/storefront-backend/pkg/pagination"
)

type stubOrdersService struct {
	list  *ordersvc.ListResult
	order *models.Order
	err   error

	gotParams pagination.Params
}

func (s *stubOrdersService) List(ctx context.Context, userID int64, params pagination.Params) (*ordersvc.ListResult, error) {
	s.gotParams = params
	return s.list, s.err
}

func (s *stubOrdersService) Get(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	return s.order, s.err
}

func (s *stubOrdersService) UpdateStatus(ctx context.Context, orderID int64, status enums.OrderStatus) error {
	return s.err
}

func (s *stubOrdersService) DailySummary(ctx context.Context, day time.Time) (*ordersvc.SalesSummary, error) {
	return nil, s.err
}

func TestOrdersListForwardsPagination(t *testing.T) {
	svc := &stubOrdersService{
		list: &ordersvc.ListResult{
			Orders: []models.Order{{ID: 1, UserID: 7, Status: enums.OrderStatusCompleted}},
			Meta:   pagination.Metadata{CurrentPage: 3, PerPage: 5, Total: 14, LastPage: 3},
		},
	}
	handler := OrdersList(svc, nil)

	req := authedRequest(http.MethodGet, "/api/v1/orders?page=3&per_page=5", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.gotParams.Page != 3 || svc.gotParams.PerPage != 5 {
		t.Fatalf("pagination not forwarded: %+v", svc.gotParams)
	}

	var envelope struct {
		Data ordersvc.ListResult `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Orders) != 1 {
		t.Fatalf("unexpected orders: %+v", envelope.Data.Orders)
	}
	if envelope.Data.Meta.Total != 14 {
		t.Fatalf("unexpected total %d", envelope.Data.Meta.Total)
	}
}

func TestOrdersListRejectsBadPage(t *testing.T) {
	handler := OrdersList(&stubOrdersService{}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/orders?page=zero", "")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestOrderDetailForbidden(t *testing.T) {
	handler := OrderDetail(&stubOrdersService{err: pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another user")}, nil)

	req := authedRequest(http.MethodGet, "/api/v1/orders/9", "")
	req = withURLParam(req, "orderId", "9")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestOrderDetailMissingUserContext(t *testing.T) {
	handler := OrderDetail(&stubOrdersService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/9", nil)
	req = withURLParam(req, "orderId", "9")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}
