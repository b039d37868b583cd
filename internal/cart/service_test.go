package cart

import (
	"context"
	"testing"

	"github.com/jmarchetti/storefront-backend/pkg/db/models"
	pkgerrors "github.com/jmarchetti/storefront-backend/pkg/errors"
	"github.com/jmarchetti/storefront-backend/pkg/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type dbProductLoader struct {
	db *gorm.DB
}

func (l dbProductLoader) FindByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := l.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func newCartService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(NewRepository(db), dbProductLoader{db: db})
	require.NoError(t, err)
	return svc
}

func TestAddCreatesLineAndMergesRepeatAdds(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Trail Mix", "7.99", 10)

	first, err := svc.Add(ctx, 1, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, "Product added to cart", first.Message)
	assert.Equal(t, "success", first.Severity.String())
	assert.Equal(t, 2, first.Item.Quantity)

	second, err := svc.Add(ctx, 1, product.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "Product quantity updated in cart", second.Message)
	assert.Equal(t, 5, second.Item.Quantity)

	// Still one line for the pair.
	view, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, 5, view.Items[0].Quantity)
}

func TestAddRejectsWhenRequestAloneExceedsStock(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)

	product := seedProduct(t, db, "Trail Mix", "7.99", 4)

	_, err := svc.Add(context.Background(), 1, product.ID, 5)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStock))
	assert.Contains(t, err.Error(), stock.MsgInsufficient)
}

func TestAddCapsMergedQuantityWithWarning(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Trail Mix", "7.99", 6)

	_, err := svc.Add(ctx, 1, product.ID, 4)
	require.NoError(t, err)

	result, err := svc.Add(ctx, 1, product.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, "warning", result.Severity.String())
	assert.Equal(t, stock.MsgAdjusted, result.Message)
	assert.Equal(t, 6, result.Item.Quantity)
}

func TestAddUnknownProduct(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)

	_, err := svc.Add(context.Background(), 1, 999, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListComputesDecimalTotal(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	coffee := seedProduct(t, db, "Cold Brew", "49.99", 10)
	mix := seedProduct(t, db, "Trail Mix", "89.99", 10)
	seedCartItem(t, db, 1, coffee.ID, 2)
	seedCartItem(t, db, 1, mix.ID, 1)

	view, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "189.97", view.Total.StringFixed(2))
	assert.Equal(t, 3, view.Count)
}

func TestListToleratesDeletedProduct(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	coffee := seedProduct(t, db, "Cold Brew", "6.25", 10)
	mix := seedProduct(t, db, "Trail Mix", "7.99", 10)
	seedCartItem(t, db, 1, coffee.ID, 1)
	seedCartItem(t, db, 1, mix.ID, 2)

	require.NoError(t, db.Exec("DELETE FROM products WHERE id = ?", coffee.ID).Error)

	view, err := svc.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 2)
	// The orphaned line contributes nothing to the total.
	assert.Equal(t, "15.98", view.Total.StringFixed(2))
}

func TestUpdateQuantityEnforcesOwnershipBeforeStock(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Trail Mix", "7.99", 10)
	item := seedCartItem(t, db, 1, product.ID, 2)

	// Another user cannot touch the line even with a valid quantity.
	_, err := svc.UpdateQuantity(ctx, 2, item.ID, 3)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	// The owner updating beyond stock is a stock error.
	_, err = svc.UpdateQuantity(ctx, 1, item.ID, 11)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStock))

	updated, err := svc.UpdateQuantity(ctx, 1, item.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Quantity)

	_, err = svc.UpdateQuantity(ctx, 1, 999, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestRemoveEnforcesOwnership(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	product := seedProduct(t, db, "Trail Mix", "7.99", 10)
	item := seedCartItem(t, db, 1, product.ID, 2)

	err := svc.Remove(ctx, 2, item.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	require.NoError(t, svc.Remove(ctx, 1, item.ID))

	view, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestCountSumsQuantities(t *testing.T) {
	db := setupCartDB(t)
	svc := newCartService(t, db)
	ctx := context.Background()

	coffee := seedProduct(t, db, "Cold Brew", "6.25", 10)
	mix := seedProduct(t, db, "Trail Mix", "7.99", 10)
	seedCartItem(t, db, 1, coffee.ID, 2)
	seedCartItem(t, db, 1, mix.ID, 3)
	seedCartItem(t, db, 2, mix.ID, 9)

	count, err := svc.Count(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	empty, err := svc.Count(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, empty)
}
