package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront/internal/auth"
	apperrors "storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/testutil"
)

const address = "123 Main St, City, State 12345"

func newOrderFixture(t *testing.T, strict bool) (*gorm.DB, OrderService, auth.Identity) {
	t.Helper()
	gormDB := testutil.NewDB(t)
	user := testutil.SeedUser(t, gormDB, "user", model.RoleCustomer)
	return gormDB, NewOrderService(repository.NewStore(gormDB), nil, strict), auth.IdentityOf(user)
}

func countOrders(t *testing.T, gormDB *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gormDB.Model(&model.Order{}).Count(&n).Error)
	return n
}

func TestOrderService_PlaceOrder(t *testing.T) {
	gormDB, svc, identity := newOrderFixture(t, true)
	laptop := testutil.SeedProduct(t, gormDB, "Laptop", "999.99", 50)

	order, err := svc.PlaceOrder(context.Background(), identity, address, []OrderLine{{ProductID: laptop.ID, Quantity: 2}})
	require.NoError(t, err)

	assert.Equal(t, "1999.98", order.TotalAmount.StringFixed(2))
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, identity.UserID, order.UserID)
	assert.Equal(t, address, order.ShippingAddress)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "999.99", order.Items[0].Price.StringFixed(2))
	assert.Equal(t, 2, order.Items[0].Quantity)
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "Laptop", order.Items[0].Product.Name)
	assert.True(t, order.TotalAmount.Equal(order.ItemsTotal()))

	assert.Equal(t, 48, testutil.Stock(t, gormDB, laptop.ID))
}

func TestOrderService_PlaceOrder_PriceIsSnapshotted(t *testing.T) {
	gormDB, svc, identity := newOrderFixture(t, true)
	laptop := testutil.SeedProduct(t, gormDB, "Laptop", "999.99", 50)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, identity, address, []OrderLine{{ProductID: laptop.ID, Quantity: 2}})
	require.NoError(t, err)

	catalog := NewCatalogService(repository.NewStore(gormDB), nil)
	_, err = catalog.UpdateProduct(ctx, laptop.ID, productInput("Laptop", "1.00", 48, laptop.CategoryID))
	require.NoError(t, err)

	order, err := svc.GetOrderByID(ctx, placed.ID)
	require.NoError(t, err)
	require.NotNil(t, order)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "999.99", order.Items[0].Price.StringFixed(2))
	assert.Equal(t, "1999.98", order.TotalAmount.StringFixed(2))
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "1.00", order.Items[0].Product.Price.StringFixed(2))
}

func TestOrderService_PlaceOrder_MultipleProducts(t *testing.T) {
	gormDB, svc, identity := newOrderFixture(t, true)
	shirt := testutil.SeedProduct(t, gormDB, "T-Shirt", "19.99", 100)
	mat := testutil.SeedProduct(t, gormDB, "Yoga Mat", "29.99", 40)

	order, err := svc.PlaceOrder(context.Background(), identity, address, []OrderLine{
		{ProductID: shirt.ID, Quantity: 3},
		{ProductID: mat.ID, Quantity: 1},
	})
	require.NoError(t, err)

	assert.Equal(t, "89.96", order.TotalAmount.StringFixed(2))
	require.Len(t, order.Items, 2)
	assert.Equal(t, shirt.ID, order.Items[0].ProductID)
	assert.Equal(t, mat.ID, order.Items[1].ProductID)
	assert.Equal(t, 97, testutil.Stock(t, gormDB, shirt.ID))
	assert.Equal(t, 39, testutil.Stock(t, gormDB, mat.ID))
}

func TestOrderService_PlaceOrder_UnknownProductRollsBack(t *testing.T) {
	gormDB, svc, identity := newOrderFixture(t, true)
	laptop := testutil.SeedProduct(t, gormDB, "Laptop", "999.99", 50)

	order, err := svc.PlaceOrder(context.Background(), identity, address, []OrderLine{
		{ProductID: laptop.ID, Quantity: 1},
		{ProductID: 9999, Quantity: 1},
	})

	assert.Nil(t, order)
	assert.ErrorIs(t, err, apperrors.ErrProductNotFound)
	assert.EqualError(t, err, "product not found: 9999")
	assert.Equal(t, 50, testutil.Stock(t, gormDB, laptop.ID))
	assert.Zero(t, countOrders(t, gormDB))
}

func TestOrderService_PlaceOrder_InsufficientStockRollsBack(t *testing.T) {
	gormDB, svc, identity := newOrderFixture(t, true)
	shirt := testutil.SeedProduct(t, gormDB, "T-Shirt", "19.99", 100)
	camera := testutil.SeedProduct(t, gormDB, "Camera", "549.00", 1)

	_, err := svc.PlaceOrder(context.Background(), identity, address, []OrderLine{
		{ProductID: shirt.ID, Quantity: 5},
		{ProductID: camera.ID, Quantity: 2},
	})

	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "Camera")
	assert.Equal(t, 100, testutil.Stock(t, gormDB, shirt.ID))
	assert.Equal(t, 1, testutil.Stock(t, gormDB, camera.ID))
	assert.Zero(t, countOrders(t, gormDB))
}

// lockRecordingStore records every product row lock taken through it.
type lockRecordingStore struct {
	repository.Store
	locked *[]uint
}

func (s lockRecordingStore) Products() repository.ProductRepository {
	return lockRecordingProducts{ProductRepository: s.Store.Products(), locked: s.locked}
}

func (s lockRecordingStore) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return s.Store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		return fn(ctx, lockRecordingStore{Store: tx, locked: s.locked})
	})
}

type lockRecordingProducts struct {
	repository.ProductRepository
	locked *[]uint
}

func (r lockRecordingProducts) FindByIDForUpdate(ctx context.Context, id uint) (*model.Product, error) {
	*r.locked = append(*r.locked, id)
	return r.ProductRepository.FindByIDForUpdate(ctx, id)
}

func TestOrderService_PlaceOrder_LocksProductsInIDOrder(t *testing.T) {
	gormDB := testutil.NewDB(t)
	user := testutil.SeedUser(t, gormDB, "user", model.RoleCustomer)
	shirt := testutil.SeedProduct(t, gormDB, "T-Shirt", "19.99", 100)
	mat := testutil.SeedProduct(t, gormDB, "Yoga Mat", "29.99", 40)

	var locked []uint
	svc := NewOrderService(lockRecordingStore{Store: repository.NewStore(gormDB), locked: &locked}, nil, true)

	order, err := svc.PlaceOrder(context.Background(), auth.IdentityOf(user), address, []OrderLine{
		{ProductID: mat.ID, Quantity: 1},
		{ProductID: shirt.ID, Quantity: 2},
		{ProductID: mat.ID, Quantity: 1},
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(locked), 2)
	assert.Equal(t, []uint{shirt.ID, mat.ID}, locked[:2])
	require.Len(t, order.Items, 3)
	assert.Equal(t, mat.ID, order.Items[0].ProductID)
	assert.Equal(t, shirt.ID, order.Items[1].ProductID)
	assert.Equal(t, 38, testutil.Stock(t, gormDB, mat.ID))
	assert.Equal(t, 98, testutil.Stock(t, gormDB, shirt.ID))
}

func TestOrderService_PlaceOrder_DuplicateLines(t *testing.T) {
	gormDB, svc, identity := newOrderFixture(t, true)
	mat := testutil.SeedProduct(t, gormDB, "Yoga Mat", "10.00", 10)

	order, err := svc.PlaceOrder(context.Background(), identity, address, []OrderLine{
		{ProductID: mat.ID, Quantity: 2},
		{ProductID: mat.ID, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Len(t, order.Items, 2)
	assert.Equal(t, "50.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, 5, testutil.Stock(t, gormDB, mat.ID))

	// Each line passes on its own but together they exceed the remaining stock
	_, err = svc.PlaceOrder(context.Background(), identity, address, []OrderLine{
		{ProductID: mat.ID, Quantity: 3},
		{ProductID: mat.ID, Quantity: 3},
	})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.Equal(t, 5, testutil.Stock(t, gormDB, mat.ID))
}

func TestOrderService_PlaceOrder_Validation(t *testing.T) {
	gormDB, svc, identity := newOrderFixture(t, true)
	mat := testutil.SeedProduct(t, gormDB, "Yoga Mat", "10.00", 10)

	tests := []struct {
		name    string
		address string
		lines   []OrderLine
		want    error
	}{
		{"no lines", address, nil, apperrors.ErrEmptyOrder},
		{"zero quantity", address, []OrderLine{{ProductID: mat.ID, Quantity: 0}}, apperrors.ErrInvalidQuantity},
		{"negative quantity", address, []OrderLine{{ProductID: mat.ID, Quantity: -1}}, apperrors.ErrInvalidQuantity},
		{"blank address", "   ", []OrderLine{{ProductID: mat.ID, Quantity: 1}}, apperrors.ErrInvalidShippingAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(context.Background(), identity, tt.address, tt.lines)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 10, testutil.Stock(t, gormDB, mat.ID))
}

func TestOrderService_PlaceOrder_UnknownUser(t *testing.T) {
	gormDB, svc, _ := newOrderFixture(t, true)
	mat := testutil.SeedProduct(t, gormDB, "Yoga Mat", "10.00", 10)

	ghost := auth.Identity{UserID: 404, Username: "ghost", Role: model.RoleCustomer}
	_, err := svc.PlaceOrder(context.Background(), ghost, address, []OrderLine{{ProductID: mat.ID, Quantity: 1}})

	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	assert.Equal(t, 10, testutil.Stock(t, gormDB, mat.ID))
}

func TestOrderService_PlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	gormDB, svc, identity := newOrderFixture(t, true)
	speaker := testutil.SeedProduct(t, gormDB, "Speaker", "79.99", 5)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), identity, address, []OrderLine{{ProductID: speaker.ID, Quantity: 1}})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, testutil.Stock(t, gormDB, speaker.ID))
	assert.Equal(t, int64(5), countOrders(t, gormDB))
}

func TestOrderService_GetOrdersForUser(t *testing.T) {
	gormDB, svc, identity := newOrderFixture(t, true)
	mat := testutil.SeedProduct(t, gormDB, "Yoga Mat", "10.00", 10)
	ctx := context.Background()

	empty, err := svc.GetOrdersForUser(ctx, identity, 0, 10)
	require.NoError(t, err)
	assert.True(t, empty.Empty)
	assert.Empty(t, empty.Content)

	var placed []uint
	for i := 1; i <= 3; i++ {
		order, err := svc.PlaceOrder(ctx, identity, address, []OrderLine{{ProductID: mat.ID, Quantity: 1}})
		require.NoError(t, err)
		placed = append(placed, order.ID)
	}

	page, err := svc.GetOrdersForUser(ctx, identity, 0, 10)
	require.NoError(t, err)
	require.Len(t, page.Content, 3)
	assert.Equal(t, placed[2], page.Content[0].ID)
	assert.Equal(t, placed[0], page.Content[2].ID)
	for i := 1; i < len(page.Content); i++ {
		assert.False(t, page.Content[i].CreatedAt.After(page.Content[i-1].CreatedAt))
	}
	assert.Len(t, page.Content[0].Items, 1)

	second, err := svc.GetOrdersForUser(ctx, identity, 1, 2)
	require.NoError(t, err)
	assert.Len(t, second.Content, 1)
	assert.Equal(t, int64(3), second.TotalElements)
	assert.True(t, second.Last)

	count, err := svc.CountOrdersForUser(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	pending, err := svc.ListOrdersForUserByStatus(ctx, identity, model.OrderStatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	_, err = svc.GetOrdersForUser(ctx, auth.Identity{UserID: 404}, 0, 10)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestOrderService_GetOrderByID(t *testing.T) {
	gormDB, svc, identity := newOrderFixture(t, true)
	mat := testutil.SeedProduct(t, gormDB, "Yoga Mat", "10.00", 10)
	ctx := context.Background()

	placed, err := svc.PlaceOrder(ctx, identity, address, []OrderLine{{ProductID: mat.ID, Quantity: 1}})
	require.NoError(t, err)

	found, err := svc.GetOrderByID(ctx, placed.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, placed.ID, found.ID)
	require.NotNil(t, found.User)
	assert.Equal(t, "user", found.User.Username)

	missing, err := svc.GetOrderByID(ctx, 9999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestOrderService_UpdateStatus(t *testing.T) {
	gormDB, svc, customer := newOrderFixture(t, true)
	admin := auth.IdentityOf(testutil.SeedUser(t, gormDB, "admin", model.RoleAdmin))
	mat := testutil.SeedProduct(t, gormDB, "Yoga Mat", "10.00", 10)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, customer, address, []OrderLine{{ProductID: mat.ID, Quantity: 1}})
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, customer, order.ID, model.OrderStatusShipped)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.UpdateStatus(ctx, admin, order.ID, model.OrderStatusDelivered)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)

	_, err = svc.UpdateStatus(ctx, admin, order.ID, model.OrderStatus("LOST"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)

	_, err = svc.UpdateStatus(ctx, admin, 9999, model.OrderStatusProcessing)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)

	updated, err := svc.UpdateStatus(ctx, admin, order.ID, model.OrderStatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, updated.Status)
	assert.True(t, updated.TotalAmount.Equal(order.TotalAmount))

	_, err = svc.UpdateStatus(ctx, admin, order.ID, model.OrderStatusCancelled)
	require.NoError(t, err)

	history, err := svc.GetStatusHistory(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.OrderStatusPending, history[0].FromStatus)
	assert.Equal(t, model.OrderStatusProcessing, history[0].ToStatus)
	assert.Equal(t, admin.UserID, history[0].ChangedBy)
	assert.Equal(t, model.OrderStatusCancelled, history[1].ToStatus)

	// Cancelling does not restock
	assert.Equal(t, 9, testutil.Stock(t, gormDB, mat.ID))

	_, err = svc.GetStatusHistory(ctx, 9999)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}

func TestOrderService_UpdateStatus_Lenient(t *testing.T) {
	gormDB, svc, customer := newOrderFixture(t, false)
	admin := auth.IdentityOf(testutil.SeedUser(t, gormDB, "admin", model.RoleAdmin))
	mat := testutil.SeedProduct(t, gormDB, "Yoga Mat", "10.00", 10)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, customer, address, []OrderLine{{ProductID: mat.ID, Quantity: 1}})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, admin, order.ID, model.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, updated.Status)

	updated, err = svc.UpdateStatus(ctx, admin, order.ID, model.OrderStatusPending)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPending, updated.Status)
}

func TestOrderService_ListOrders(t *testing.T) {
	gormDB, svc, customer := newOrderFixture(t, true)
	admin := auth.IdentityOf(testutil.SeedUser(t, gormDB, "admin", model.RoleAdmin))
	mat := testutil.SeedProduct(t, gormDB, "Yoga Mat", "10.00", 10)
	ctx := context.Background()

	first, err := svc.PlaceOrder(ctx, customer, address, []OrderLine{{ProductID: mat.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, customer, address, []OrderLine{{ProductID: mat.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, admin, first.ID, model.OrderStatusProcessing)
	require.NoError(t, err)

	all, err := svc.ListOrders(ctx, "", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalElements)

	processing, err := svc.ListOrders(ctx, model.OrderStatusProcessing, 0, 10)
	require.NoError(t, err)
	require.Len(t, processing.Content, 1)
	assert.Equal(t, first.ID, processing.Content[0].ID)

	_, err = svc.ListOrders(ctx, "LOST", 0, 10)
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}
