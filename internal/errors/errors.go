package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrUserNotFound is returned when an identity does not resolve to a user.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound is returned when a product id does not exist.
	ErrProductNotFound = errors.New("product not found")
	// ErrCategoryNotFound is returned when a category id does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrOrderNotFound is returned when an order id does not exist.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInsufficientStock is returned when a product cannot cover the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrEmptyOrder is returned when an order request has no line items.
	ErrEmptyOrder = errors.New("order must contain at least one item")
	// ErrInvalidQuantity is returned when a line item quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrInvalidShippingAddress is returned when the shipping address is blank.
	ErrInvalidShippingAddress = errors.New("shipping address is required")
	// ErrInvalidStatus is returned when a status value is not part of the order lifecycle.
	ErrInvalidStatus = errors.New("invalid order status")
	// ErrInvalidStatusTransition is returned when the lifecycle forbids a status change.
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	// ErrInvalidPrice is returned when a product price is negative.
	ErrInvalidPrice = errors.New("price must not be negative")
	// ErrInvalidStockQuantity is returned when a product stock quantity is negative.
	ErrInvalidStockQuantity = errors.New("stock quantity must not be negative")
	// ErrCategoryNameTaken is returned when creating a category whose name exists.
	ErrCategoryNameTaken = errors.New("category name is already in use")
	// ErrProductInUse is returned when deleting a product that existing orders reference.
	ErrProductInUse = errors.New("product is referenced by existing orders")
	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username is already taken")
	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = errors.New("email is already in use")
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken is returned when a bearer or refresh token is missing, invalid or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrForbidden is returned when the caller's role does not allow the operation.
	ErrForbidden = errors.New("access denied")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

type mapping struct {
	target error
	status int
	code   string
}

var mappings = []mapping{
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrProductNotFound, http.StatusNotFound, "PRODUCT_NOT_FOUND"},
	{ErrCategoryNotFound, http.StatusNotFound, "CATEGORY_NOT_FOUND"},
	{ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{ErrInsufficientStock, http.StatusBadRequest, "INSUFFICIENT_STOCK"},
	{ErrEmptyOrder, http.StatusBadRequest, "EMPTY_ORDER"},
	{ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
	{ErrInvalidShippingAddress, http.StatusBadRequest, "INVALID_SHIPPING_ADDRESS"},
	{ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
	{ErrInvalidStatusTransition, http.StatusBadRequest, "INVALID_STATUS_TRANSITION"},
	{ErrInvalidPrice, http.StatusBadRequest, "INVALID_PRICE"},
	{ErrInvalidStockQuantity, http.StatusBadRequest, "INVALID_STOCK_QUANTITY"},
	{ErrCategoryNameTaken, http.StatusConflict, "CATEGORY_NAME_TAKEN"},
	{ErrProductInUse, http.StatusConflict, "PRODUCT_IN_USE"},
	{ErrUsernameTaken, http.StatusConflict, "USERNAME_TAKEN"},
	{ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Wrapped errors keep their
// full message so details such as the missing product id reach the caller.
func MapErrorToHTTP(err error) *HTTPError {
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return NewHTTPError(m.status, err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
