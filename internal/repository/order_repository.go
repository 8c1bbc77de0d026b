package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/model"
)

// OrderRepository defines order persistence operations.
type OrderRepository interface {
	// Create persists the order and its items.
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Order, error)
	// FindByUser returns the user's orders, newest first.
	FindByUser(ctx context.Context, userID uint, page Pagination) (model.Page[model.Order], error)
	FindByUserAndStatus(ctx context.Context, userID uint, status model.OrderStatus) ([]model.Order, error)
	CountByUser(ctx context.Context, userID uint) (int64, error)
	// List returns every order, newest first, optionally restricted to one status.
	List(ctx context.Context, status model.OrderStatus, page Pagination) (model.Page[model.Order], error)
	UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) error
	CreateStatusLog(ctx context.Context, entry *model.OrderStatusLog) error
	StatusHistory(ctx context.Context, orderID uint) ([]model.OrderStatusLog, error)
	CountItemsForProduct(ctx context.Context, productID uint) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create creates a new order record together with its items.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit("User").Create(order).Error
}

// FindByID finds an order by ID with its owner and items.
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.withDetails(r.db.WithContext(ctx)).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate locks the order row without loading relations.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := r.db.WithContext(ctx).Clauses(lockForUpdate).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByUser returns one page of the user's orders ordered by creation time, newest first.
func (r *orderRepository) FindByUser(ctx context.Context, userID uint, page Pagination) (model.Page[model.Order], error) {
	page = page.Normalize()

	total, err := r.CountByUser(ctx, userID)
	if err != nil {
		return model.Page[model.Order]{}, err
	}

	var orders []model.Order
	if err := r.withItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Scopes(paginate(page)).
		Find(&orders).Error; err != nil {
		return model.Page[model.Order]{}, err
	}
	return model.NewPage(orders, page.Page, page.Size, total), nil
}

// FindByUserAndStatus returns all of the user's orders in the given status, newest first.
func (r *orderRepository) FindByUserAndStatus(ctx context.Context, userID uint, status model.OrderStatus) ([]model.Order, error) {
	var orders []model.Order
	if err := r.withItems(r.db.WithContext(ctx)).
		Where("user_id = ? AND status = ?", userID, status).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// CountByUser counts the user's orders.
func (r *orderRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// List returns one page of all orders.
func (r *orderRepository) List(ctx context.Context, status model.OrderStatus, page Pagination) (model.Page[model.Order], error) {
	page = page.Normalize()

	filter := func(db *gorm.DB) *gorm.DB {
		if status != "" {
			return db.Where("status = ?", status)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Order{}).Scopes(filter).Count(&total).Error; err != nil {
		return model.Page[model.Order]{}, err
	}

	var orders []model.Order
	if err := r.withDetails(r.db.WithContext(ctx)).
		Scopes(filter, paginate(page)).
		Order("created_at DESC").Order("id DESC").
		Find(&orders).Error; err != nil {
		return model.Page[model.Order]{}, err
	}
	return model.NewPage(orders, page.Page, page.Size, total), nil
}

// UpdateStatus overwrites the order status.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status model.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateStatusLog appends a status change entry.
func (r *orderRepository) CreateStatusLog(ctx context.Context, entry *model.OrderStatusLog) error {
	return r.db.WithContext(ctx).Omit("Order").Create(entry).Error
}

// StatusHistory returns the order's status changes, oldest first.
func (r *orderRepository) StatusHistory(ctx context.Context, orderID uint) ([]model.OrderStatusLog, error) {
	var entries []model.OrderStatusLog
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).
		Order("created_at ASC").Order("id ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// CountItemsForProduct counts order lines that reference the product.
func (r *orderRepository) CountItemsForProduct(ctx context.Context, productID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}

func (r *orderRepository) withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Preload("Items.Product")
}

func (r *orderRepository) withDetails(db *gorm.DB) *gorm.DB {
	return r.withItems(db).Preload("User")
}
