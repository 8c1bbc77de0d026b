package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"storefront/internal/errors"
	"storefront/internal/model"
	"storefront/internal/service"
)

// OrderHandler handles order endpoints.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrderItemRequest is one line of an order request.
type OrderItemRequest struct {
	ProductID uint `json:"productId" validate:"required"`
	Quantity  int  `json:"quantity"`
}

// OrderRequest represents a place-order request. Emptiness, quantities and
// the address are checked by the order service.
type OrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"dive"`
	ShippingAddress string             `json:"shippingAddress"`
}

// PlaceOrder godoc
// @Summary Place an order for the authenticated user
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body OrderRequest true "Order lines and shipping address"
// @Success 200 {object} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	var req OrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := h.orderService.PlaceOrder(c.Request().Context(), identity, req.ShippingAddress, lines)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// MyOrders godoc
// @Summary List the authenticated user's orders, newest first
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param page query int false "Zero-based page" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} model.Page[model.Order]
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/my-orders [get]
func (h *OrderHandler) MyOrders(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}

	orders, err := h.orderService.GetOrdersForUser(c.Request().Context(), identity, page, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// CountResponse carries a single count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// MyOrderCount godoc
// @Summary Count the authenticated user's orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {object} CountResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/my-orders/count [get]
func (h *OrderHandler) MyOrderCount(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	count, err := h.orderService.CountOrdersForUser(c.Request().Context(), identity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, CountResponse{Count: count})
}

// MyOrdersByStatus godoc
// @Summary List the authenticated user's orders in one status, newest first
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param status path string true "Order status" Enums(PENDING, PROCESSING, SHIPPED, DELIVERED, CANCELLED)
// @Success 200 {array} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /orders/my-orders/status/{status} [get]
func (h *OrderHandler) MyOrdersByStatus(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}

	status, ok := model.ParseOrderStatus(c.Param("status"))
	if !ok {
		return respondError(c, errors.ErrInvalidStatus)
	}

	orders, err := h.orderService.ListOrdersForUserByStatus(c.Request().Context(), identity, status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// GetOrder godoc
// @Summary Get an order by id
// @Description Customers only see their own orders; administrators see every order.
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {object} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [get]
func (h *OrderHandler) GetOrder(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.GetOrderByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	// Other users' orders are indistinguishable from missing ones
	if order == nil || (order.UserID != identity.UserID && !identity.IsAdmin()) {
		return echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
			Error: errors.ErrOrderNotFound.Error(),
			Code:  "ORDER_NOT_FOUND",
		})
	}
	return c.JSON(http.StatusOK, order)
}

// UpdateStatus godoc
// @Summary Update an order's status
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Param status query string true "PENDING, PROCESSING, SHIPPED, DELIVERED or CANCELLED"
// @Success 200 {object} model.Order
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	status, ok := model.ParseOrderStatus(c.QueryParam("status"))
	if !ok {
		return respondError(c, errors.ErrInvalidStatus)
	}

	order, err := h.orderService.UpdateStatus(c.Request().Context(), identity, id, status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// ListOrders godoc
// @Summary List all orders
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param status query string false "Only orders in this status"
// @Param page query int false "Zero-based page" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} model.Page[model.Order]
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}

	var status model.OrderStatus
	if raw := c.QueryParam("status"); raw != "" {
		parsed, ok := model.ParseOrderStatus(raw)
		if !ok {
			return respondError(c, errors.ErrInvalidStatus)
		}
		status = parsed
	}

	orders, err := h.orderService.ListOrders(c.Request().Context(), status, page, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

// StatusHistory godoc
// @Summary List an order's status changes
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path int true "Order ID"
// @Success 200 {array} model.OrderStatusLog
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id}/history [get]
func (h *OrderHandler) StatusHistory(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	history, err := h.orderService.GetStatusHistory(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, history)
}
