package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"wrapped product not found keeps id", fmt.Errorf("%w: 42", ErrProductNotFound), http.StatusNotFound, "PRODUCT_NOT_FOUND", "product not found: 42"},
		{"insufficient stock", fmt.Errorf("%w for product: Yoga Mat", ErrInsufficientStock), http.StatusBadRequest, "INSUFFICIENT_STOCK", "insufficient stock for product: Yoga Mat"},
		{"username conflict", ErrUsernameTaken, http.StatusConflict, "USERNAME_TAKEN", ErrUsernameTaken.Error()},
		{"bad credentials", ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", ErrInvalidCredentials.Error()},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN", ErrForbidden.Error()},
		{"unknown error is hidden", errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
			assert.Equal(t, tt.wantMsg, httpErr.ToErrorResponse().Error)
		})
	}
}
