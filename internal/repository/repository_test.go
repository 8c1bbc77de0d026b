package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/testutil"
)

func TestProductRepository_Find(t *testing.T) {
	gormDB := testutil.NewDB(t)
	repo := repository.NewProductRepository(gormDB)
	ctx := context.Background()

	phone := testutil.SeedProduct(t, gormDB, "iPhone 15 Pro", "999.99", 50)
	testutil.SeedProduct(t, gormDB, "Samsung Galaxy Phone", "899.99", 0)
	testutil.SeedProduct(t, gormDB, "Yoga Mat", "29.99", 90)

	minPrice := decimal.RequireFromString("30")
	maxPrice := decimal.RequireFromString("999.99")

	tests := []struct {
		name      string
		filter    repository.ProductFilter
		sort      repository.ProductSort
		wantNames []string
	}{
		{"all by id", repository.ProductFilter{}, repository.ProductSort{Field: "id"}, []string{"iPhone 15 Pro", "Samsung Galaxy Phone", "Yoga Mat"}},
		{"name contains", repository.ProductFilter{NameLike: "Phone"}, repository.ProductSort{Field: "name"}, []string{"Samsung Galaxy Phone", "iPhone 15 Pro"}},
		{"price range inclusive", repository.ProductFilter{MinPrice: &minPrice, MaxPrice: &maxPrice}, repository.ProductSort{Field: "price", Desc: true}, []string{"iPhone 15 Pro", "Samsung Galaxy Phone"}},
		{"in stock only", repository.ProductFilter{InStockOnly: true}, repository.ProductSort{Field: "stockQuantity"}, []string{"iPhone 15 Pro", "Yoga Mat"}},
		{"category", repository.ProductFilter{CategoryID: phone.CategoryID}, repository.ProductSort{}, []string{"iPhone 15 Pro", "Samsung Galaxy Phone", "Yoga Mat"}},
		{"unknown sort falls back to id", repository.ProductFilter{}, repository.ProductSort{Field: "password"}, []string{"iPhone 15 Pro", "Samsung Galaxy Phone", "Yoga Mat"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.Find(ctx, tt.filter, tt.sort, repository.Pagination{Page: 0, Size: 10})
			require.NoError(t, err)

			names := make([]string, 0, len(page.Content))
			for _, p := range page.Content {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, int64(len(tt.wantNames)), page.TotalElements)
		})
	}
}

func TestProductRepository_FindPaginates(t *testing.T) {
	gormDB := testutil.NewDB(t)
	repo := repository.NewProductRepository(gormDB)

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		testutil.SeedProduct(t, gormDB, name, "1.00", 1)
	}

	page, err := repo.Find(context.Background(), repository.ProductFilter{}, repository.ProductSort{Field: "name"}, repository.Pagination{Page: 2, Size: 2})
	require.NoError(t, err)

	require.Len(t, page.Content, 1)
	assert.Equal(t, "e", page.Content[0].Name)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.Last)
	assert.NotNil(t, page.Content[0].Category)
}

func TestProductRepository_DecrementStock(t *testing.T) {
	gormDB := testutil.NewDB(t)
	repo := repository.NewProductRepository(gormDB)
	ctx := context.Background()
	product := testutil.SeedProduct(t, gormDB, "Basketball", "24.99", 3)

	ok, err := repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, testutil.Stock(t, gormDB, product.ID))

	ok, err = repo.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok, "decrement beyond stock must not apply")
	assert.Equal(t, 1, testutil.Stock(t, gormDB, product.ID))
}

func TestProductRepository_DeleteMissing(t *testing.T) {
	repo := repository.NewProductRepository(testutil.NewDB(t))

	err := repo.Delete(context.Background(), 404)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestOrderRepository_FindByUserNewestFirst(t *testing.T) {
	gormDB := testutil.NewDB(t)
	repo := repository.NewOrderRepository(gormDB)
	ctx := context.Background()

	user := testutil.SeedUser(t, gormDB, "alice", model.RoleCustomer)
	other := testutil.SeedUser(t, gormDB, "bob", model.RoleCustomer)
	product := testutil.SeedProduct(t, gormDB, "Yoga Mat", "29.99", 90)

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, owner := range []uint{user.ID, user.ID, other.ID, user.ID} {
		order := &model.Order{
			UserID:          owner,
			ShippingAddress: "1 Main St",
			Status:          model.OrderStatusPending,
			TotalAmount:     decimal.RequireFromString("29.99"),
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
			Items:           []model.OrderItem{{ProductID: product.ID, Quantity: 1, Price: product.Price}},
		}
		require.NoError(t, repo.Create(ctx, order))
	}

	page, err := repo.FindByUser(ctx, user.ID, repository.Pagination{Page: 0, Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Content, 3)
	assert.Equal(t, int64(3), page.TotalElements)
	for i := 1; i < len(page.Content); i++ {
		assert.True(t, page.Content[i-1].CreatedAt.After(page.Content[i].CreatedAt))
	}
	require.Len(t, page.Content[0].Items, 1)
	assert.Equal(t, "Yoga Mat", page.Content[0].Items[0].Product.Name)

	empty, err := repo.FindByUser(ctx, 999, repository.Pagination{})
	require.NoError(t, err)
	assert.True(t, empty.Empty)

	count, err := repo.CountByUser(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestOrderRepository_StatusQueries(t *testing.T) {
	gormDB := testutil.NewDB(t)
	repo := repository.NewOrderRepository(gormDB)
	ctx := context.Background()

	user := testutil.SeedUser(t, gormDB, "carol", model.RoleCustomer)
	product := testutil.SeedProduct(t, gormDB, "Coffee Maker", "79.99", 40)

	order := &model.Order{
		UserID:          user.ID,
		ShippingAddress: "2 Side St",
		Status:          model.OrderStatusPending,
		TotalAmount:     product.Price,
		Items:           []model.OrderItem{{ProductID: product.ID, Quantity: 1, Price: product.Price}},
	}
	require.NoError(t, repo.Create(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, model.OrderStatusShipped))
	require.NoError(t, repo.CreateStatusLog(ctx, &model.OrderStatusLog{
		OrderID: order.ID, FromStatus: model.OrderStatusPending, ToStatus: model.OrderStatusShipped, ChangedBy: user.ID,
	}))

	shipped, err := repo.FindByUserAndStatus(ctx, user.ID, model.OrderStatusShipped)
	require.NoError(t, err)
	assert.Len(t, shipped, 1)

	all, err := repo.List(ctx, model.OrderStatusPending, repository.Pagination{})
	require.NoError(t, err)
	assert.True(t, all.Empty)

	history, err := repo.StatusHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.OrderStatusShipped, history[0].ToStatus)

	items, err := repo.CountItemsForProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), items)

	err = repo.UpdateStatus(ctx, 12345, model.OrderStatusShipped)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestStore_WithTransactionRollsBack(t *testing.T) {
	gormDB := testutil.NewDB(t)
	store := repository.NewStore(gormDB)
	ctx := context.Background()
	product := testutil.SeedProduct(t, gormDB, "Tennis Racket", "149.99", 15)

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		ok, err := tx.Products().DecrementStock(ctx, product.ID, 5)
		require.NoError(t, err)
		require.True(t, ok)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 15, testutil.Stock(t, gormDB, product.ID))
}

func TestUserRepository_Exists(t *testing.T) {
	gormDB := testutil.NewDB(t)
	repo := repository.NewUserRepository(gormDB)
	ctx := context.Background()
	testutil.SeedUser(t, gormDB, "dave", model.RoleAdmin)

	exists, err := repo.ExistsByUsername(ctx, "dave")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	user, err := repo.FindByUsername(ctx, "dave")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())
}
