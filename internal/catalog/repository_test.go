package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAppliesIndependentFilters(t *testing.T) {
	db := setupCatalogDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	snacks := seedCategory(t, db, "Snacks", "snacks")
	drinks := seedCategory(t, db, "Drinks", "drinks")
	seedProduct(t, db, snacks.ID, "Salted Pretzels", "4.50", 20)
	seedProduct(t, db, snacks.ID, "Dark Chocolate", "12.00", 5)
	seedProduct(t, db, drinks.ID, "Cold Brew", "6.25", 8)

	t.Run("no filters returns everything", func(t *testing.T) {
		rows, total, err := repo.List(ctx, ListInput{Page: 1}, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		assert.Len(t, rows, 3)
	})

	t.Run("search is case-insensitive substring", func(t *testing.T) {
		rows, total, err := repo.List(ctx, ListInput{
			Filters: ListFilters{Search: "chocolate"},
			Page:    1,
		}, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, "Dark Chocolate", rows[0].Name)
	})

	t.Run("category slug filter", func(t *testing.T) {
		rows, total, err := repo.List(ctx, ListInput{
			Filters: ListFilters{CategorySlug: "drinks"},
			Page:    1,
		}, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, "Cold Brew", rows[0].Name)
	})

	t.Run("price bounds are inclusive", func(t *testing.T) {
		min := decimal.RequireFromString("4.50")
		max := decimal.RequireFromString("6.25")
		rows, total, err := repo.List(ctx, ListInput{
			Filters: ListFilters{MinPrice: &min, MaxPrice: &max},
			Page:    1,
		}, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, rows, 2)
	})

	t.Run("combined filters intersect", func(t *testing.T) {
		max := decimal.RequireFromString("5.00")
		rows, total, err := repo.List(ctx, ListInput{
			Filters: ListFilters{CategorySlug: "snacks", MaxPrice: &max},
			Page:    1,
		}, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, "Salted Pretzels", rows[0].Name)
	})
}

func TestListSortWhitelistAndPagination(t *testing.T) {
	db := setupCatalogDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	category := seedCategory(t, db, "Snacks", "snacks")
	seedProduct(t, db, category.ID, "Apple Chips", "3.00", 1)
	seedProduct(t, db, category.ID, "Banana Bread", "5.00", 1)
	seedProduct(t, db, category.ID, "Cashew Mix", "4.00", 1)

	t.Run("sort by price ascending", func(t *testing.T) {
		rows, _, err := repo.List(ctx, ListInput{SortBy: SortByPrice, SortOrder: SortOrderAsc, Page: 1}, 10)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Apple Chips", rows[0].Name)
		assert.Equal(t, "Banana Bread", rows[2].Name)
	})

	t.Run("sort by name descending", func(t *testing.T) {
		rows, _, err := repo.List(ctx, ListInput{SortBy: SortByName, SortOrder: SortOrderDesc, Page: 1}, 10)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "Cashew Mix", rows[0].Name)
	})

	t.Run("unknown sort column falls back to created_at", func(t *testing.T) {
		_, _, err := repo.List(ctx, ListInput{SortBy: "price; DROP TABLE products", Page: 1}, 10)
		require.NoError(t, err)

		var count int64
		require.NoError(t, db.Table("products").Count(&count).Error)
		assert.EqualValues(t, 3, count)
	})

	t.Run("second page with page size two", func(t *testing.T) {
		rows, total, err := repo.List(ctx, ListInput{SortBy: SortByName, SortOrder: SortOrderAsc, Page: 2}, 2)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, rows, 1)
		assert.Equal(t, "Cashew Mix", rows[0].Name)
	})
}

func TestFindByIDPreloadsCategory(t *testing.T) {
	db := setupCatalogDB(t)
	repo := NewRepository(db)

	category := seedCategory(t, db, "Snacks", "snacks")
	product := seedProduct(t, db, category.ID, "Trail Mix", "7.99", 12)

	found, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.NotNil(t, found.Category)
	assert.Equal(t, "snacks", found.Category.Slug)
}

func TestListCategoriesOrdersByName(t *testing.T) {
	db := setupCatalogDB(t)
	repo := NewRepository(db)

	seedCategory(t, db, "Zeros", "zeros")
	seedCategory(t, db, "Apples", "apples")

	rows, err := repo.ListCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Apples", rows[0].Name)
}

func TestSetStock(t *testing.T) {
	db := setupCatalogDB(t)
	repo := NewRepository(db)

	category := seedCategory(t, db, "Snacks", "snacks")
	product := seedProduct(t, db, category.ID, "Trail Mix", "7.99", 12)

	require.NoError(t, repo.SetStock(context.Background(), product.ID, 3))

	found, err := repo.FindByID(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, found.StockQuantity)
}
