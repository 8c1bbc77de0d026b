package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront/internal/auth"
	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"
)

// OrderLine is one requested product and quantity.
type OrderLine struct {
	ProductID uint
	Quantity  int
}

// OrderService places orders and answers order queries.
type OrderService interface {
	PlaceOrder(ctx context.Context, identity auth.Identity, shippingAddress string, lines []OrderLine) (*model.Order, error)
	GetOrdersForUser(ctx context.Context, identity auth.Identity, page, size int) (model.Page[model.Order], error)
	// GetOrderByID returns nil, nil when the order does not exist.
	GetOrderByID(ctx context.Context, orderID uint) (*model.Order, error)
	UpdateStatus(ctx context.Context, identity auth.Identity, orderID uint, status model.OrderStatus) (*model.Order, error)
	ListOrders(ctx context.Context, status model.OrderStatus, page, size int) (model.Page[model.Order], error)
	GetStatusHistory(ctx context.Context, orderID uint) ([]model.OrderStatusLog, error)
	CountOrdersForUser(ctx context.Context, identity auth.Identity) (int64, error)
	ListOrdersForUserByStatus(ctx context.Context, identity auth.Identity, status model.OrderStatus) ([]model.Order, error)
}

type orderService struct {
	store             repository.Store
	cache             *cache.Client
	strictTransitions bool
}

// NewOrderService creates a new order service. With strictTransitions set,
// status updates must follow the order lifecycle.
func NewOrderService(store repository.Store, cache *cache.Client, strictTransitions bool) OrderService {
	return &orderService{
		store:             store,
		cache:             cache,
		strictTransitions: strictTransitions,
	}
}

// PlaceOrder validates every line, reserves stock and persists the order in
// a single transaction. Any failure leaves stock untouched.
func (s *orderService) PlaceOrder(ctx context.Context, identity auth.Identity, shippingAddress string, lines []OrderLine) (*model.Order, error) {
	log := logger.FromContext(ctx)

	if err := validateOrderRequest(shippingAddress, lines); err != nil {
		s.reject(ctx, identity, err)
		return nil, err
	}

	var order *model.Order
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		user, err := tx.Users().FindByID(ctx, identity.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("find user: %w", err)
		}

		if err := lockProducts(ctx, tx, lines); err != nil {
			return err
		}

		items := make([]model.OrderItem, 0, len(lines))
		total := decimal.Zero
		for _, line := range lines {
			// Re-read under the held lock so repeated lines see earlier decrements
			product, err := tx.Products().FindByIDForUpdate(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", apperrors.ErrProductNotFound, line.ProductID)
				}
				return fmt.Errorf("find product %d: %w", line.ProductID, err)
			}

			if !product.InStock(line.Quantity) {
				return fmt.Errorf("%w for product: %s", apperrors.ErrInsufficientStock, product.Name)
			}

			item := model.OrderItem{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				Price:     product.Price,
			}

			reserved, err := tx.Products().DecrementStock(ctx, product.ID, line.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock for product %d: %w", product.ID, err)
			}
			if !reserved {
				return fmt.Errorf("%w for product: %s", apperrors.ErrInsufficientStock, product.Name)
			}

			total = total.Add(item.Subtotal())
			items = append(items, item)
		}

		created := &model.Order{
			UserID:          user.ID,
			TotalAmount:     total,
			ShippingAddress: shippingAddress,
			Status:          model.OrderStatusPending,
			Items:           items,
		}
		if err := tx.Orders().Create(ctx, created); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		order, err = tx.Orders().FindByID(ctx, created.ID)
		if err != nil {
			return fmt.Errorf("reload order: %w", err)
		}
		return nil
	})
	if err != nil {
		s.reject(ctx, identity, err)
		return nil, err
	}

	// Stock changed for every referenced product
	keys := make([]string, 0, len(lines))
	for _, line := range lines {
		keys = append(keys, productCacheKey(line.ProductID))
	}
	_ = s.cache.Delete(ctx, keys...)

	metrics.OrdersPlaced.Inc()
	metrics.OrderItems.Add(float64(len(order.Items)))
	log.Info("order placed",
		"order_id", order.ID,
		"user_id", order.UserID,
		"items", len(order.Items),
		"total", order.TotalAmount.StringFixed(2),
	)
	return order, nil
}

// lockProducts takes the row lock of every distinct product in ascending id
// order, so orders naming the same products in different orders cannot
// deadlock. Missing ids are skipped and reported by the per-line pass.
func lockProducts(ctx context.Context, tx repository.Store, lines []OrderLine) error {
	ids := make([]uint, 0, len(lines))
	seen := make(map[uint]bool, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	slices.Sort(ids)

	for _, id := range ids {
		if _, err := tx.Products().FindByIDForUpdate(ctx, id); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("lock product %d: %w", id, err)
		}
	}
	return nil
}

func validateOrderRequest(shippingAddress string, lines []OrderLine) error {
	if strings.TrimSpace(shippingAddress) == "" {
		return apperrors.ErrInvalidShippingAddress
	}
	if len(lines) == 0 {
		return apperrors.ErrEmptyOrder
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: product %d", apperrors.ErrInvalidQuantity, line.ProductID)
		}
	}
	return nil
}

func (s *orderService) reject(ctx context.Context, identity auth.Identity, err error) {
	reason := rejectionReason(err)
	metrics.OrderRejections.WithLabelValues(reason).Inc()
	logger.FromContext(ctx).Warn("order rejected",
		"user_id", identity.UserID,
		"reason", reason,
		"error", err.Error(),
	)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, apperrors.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, apperrors.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, apperrors.ErrEmptyOrder),
		errors.Is(err, apperrors.ErrInvalidQuantity),
		errors.Is(err, apperrors.ErrInvalidShippingAddress):
		return "invalid"
	default:
		return "error"
	}
}

// GetOrdersForUser returns one page of the caller's orders, newest first.
func (s *orderService) GetOrdersForUser(ctx context.Context, identity auth.Identity, page, size int) (model.Page[model.Order], error) {
	if err := s.ensureUser(ctx, identity.UserID); err != nil {
		return model.Page[model.Order]{}, err
	}

	orders, err := s.store.Orders().FindByUser(ctx, identity.UserID, repository.Pagination{Page: page, Size: size})
	if err != nil {
		return model.Page[model.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetOrderByID looks up an order with its items and owner.
func (s *orderService) GetOrderByID(ctx context.Context, orderID uint) (*model.Order, error) {
	order, err := s.store.Orders().FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

// UpdateStatus sets a new status on an order and records the change. Only
// administrators may call it.
func (s *orderService) UpdateStatus(ctx context.Context, identity auth.Identity, orderID uint, status model.OrderStatus) (*model.Order, error) {
	if !identity.IsAdmin() {
		return nil, apperrors.ErrForbidden
	}
	if _, ok := model.ParseOrderStatus(string(status)); !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, status)
	}

	var (
		updated  *model.Order
		previous model.OrderStatus
	)
	err := s.store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		order, err := tx.Orders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", apperrors.ErrOrderNotFound, orderID)
			}
			return fmt.Errorf("find order: %w", err)
		}
		previous = order.Status

		if s.strictTransitions && !order.Status.CanTransitionTo(status) {
			return fmt.Errorf("%w: %s to %s", apperrors.ErrInvalidStatusTransition, order.Status, status)
		}

		if err := tx.Orders().UpdateStatus(ctx, orderID, status); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		if err := tx.Orders().CreateStatusLog(ctx, &model.OrderStatusLog{
			OrderID:    orderID,
			FromStatus: order.Status,
			ToStatus:   status,
			ChangedBy:  identity.UserID,
		}); err != nil {
			return fmt.Errorf("log status change: %w", err)
		}

		updated, err = tx.Orders().FindByID(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderStatusChanges.WithLabelValues(string(status)).Inc()
	logger.FromContext(ctx).Info("order status updated",
		"order_id", orderID,
		"from", previous,
		"to", status,
		"changed_by", identity.UserID,
	)
	return updated, nil
}

// ListOrders returns one page of all orders, optionally filtered by status.
func (s *orderService) ListOrders(ctx context.Context, status model.OrderStatus, page, size int) (model.Page[model.Order], error) {
	if status != "" {
		if _, ok := model.ParseOrderStatus(string(status)); !ok {
			return model.Page[model.Order]{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, status)
		}
	}

	orders, err := s.store.Orders().List(ctx, status, repository.Pagination{Page: page, Size: size})
	if err != nil {
		return model.Page[model.Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetStatusHistory returns the recorded status changes of an order, oldest first.
func (s *orderService) GetStatusHistory(ctx context.Context, orderID uint) ([]model.OrderStatusLog, error) {
	if _, err := s.store.Orders().FindByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", apperrors.ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	history, err := s.store.Orders().StatusHistory(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("status history: %w", err)
	}
	return history, nil
}

// CountOrdersForUser counts the caller's orders.
func (s *orderService) CountOrdersForUser(ctx context.Context, identity auth.Identity) (int64, error) {
	if err := s.ensureUser(ctx, identity.UserID); err != nil {
		return 0, err
	}
	return s.store.Orders().CountByUser(ctx, identity.UserID)
}

// ListOrdersForUserByStatus returns the caller's orders in one status, newest first.
func (s *orderService) ListOrdersForUserByStatus(ctx context.Context, identity auth.Identity, status model.OrderStatus) ([]model.Order, error) {
	if _, ok := model.ParseOrderStatus(string(status)); !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidStatus, status)
	}
	if err := s.ensureUser(ctx, identity.UserID); err != nil {
		return nil, err
	}
	return s.store.Orders().FindByUserAndStatus(ctx, identity.UserID, status)
}

func (s *orderService) ensureUser(ctx context.Context, userID uint) error {
	if _, err := s.store.Users().FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	return nil
}
