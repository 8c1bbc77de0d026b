package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"storefront/internal/service"
)

// ProductHandler serves the product catalog.
type ProductHandler struct {
	catalog service.CatalogService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(catalog service.CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// ProductRequest represents a product create or update request.
type ProductRequest struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price" swaggertype:"string" example:"999.99"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
	ImageURL      string          `json:"imageUrl" validate:"omitempty,url,max=500"`
	CategoryID    uint            `json:"categoryId" validate:"required"`
}

func (r ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:          r.Name,
		Description:   r.Description,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		ImageURL:      r.ImageURL,
		CategoryID:    r.CategoryID,
	}
}

// ListProducts godoc
// @Summary List products
// @Tags products
// @Produce json
// @Param page query int false "Zero-based page" default(0)
// @Param size query int false "Page size" default(10)
// @Param sortBy query string false "id, name, price, stockQuantity or createdAt" default(id)
// @Param sortDir query string false "asc or desc" default(asc)
// @Success 200 {object} model.Page[model.Product]
// @Failure 400 {object} errors.ErrorResponse
// @Router /products [get]
func (h *ProductHandler) ListProducts(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}

	products, err := h.catalog.ListProducts(c.Request().Context(), page, size, c.QueryParam("sortBy"), c.QueryParam("sortDir"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct godoc
// @Summary Get product by id
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [get]
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	product, err := h.catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// ListByCategory godoc
// @Summary List products in a category
// @Tags products
// @Produce json
// @Param categoryId path int true "Category ID"
// @Param page query int false "Zero-based page" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} model.Page[model.Product]
// @Failure 400 {object} errors.ErrorResponse
// @Router /products/category/{categoryId} [get]
func (h *ProductHandler) ListByCategory(c echo.Context) error {
	categoryID, err := parseID(c, "categoryId")
	if err != nil {
		return err
	}
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}

	products, err := h.catalog.ListByCategory(c.Request().Context(), categoryID, page, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// Search godoc
// @Summary Search products by name
// @Tags products
// @Produce json
// @Param name query string true "Name fragment"
// @Param page query int false "Zero-based page" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} model.Page[model.Product]
// @Failure 400 {object} errors.ErrorResponse
// @Router /products/search [get]
func (h *ProductHandler) Search(c echo.Context) error {
	name := c.QueryParam("name")
	if name == "" {
		return invalidQuery("name")
	}
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}

	products, err := h.catalog.SearchByName(c.Request().Context(), name, page, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// PriceRange godoc
// @Summary List products within a price range
// @Tags products
// @Produce json
// @Param minPrice query string true "Lowest price, inclusive"
// @Param maxPrice query string true "Highest price, inclusive"
// @Param page query int false "Zero-based page" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} model.Page[model.Product]
// @Failure 400 {object} errors.ErrorResponse
// @Router /products/price-range [get]
func (h *ProductHandler) PriceRange(c echo.Context) error {
	minPrice, err := decimal.NewFromString(c.QueryParam("minPrice"))
	if err != nil {
		return invalidQuery("minPrice")
	}
	maxPrice, err := decimal.NewFromString(c.QueryParam("maxPrice"))
	if err != nil {
		return invalidQuery("maxPrice")
	}
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}

	products, err := h.catalog.ListByPriceRange(c.Request().Context(), minPrice, maxPrice, page, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// Latest godoc
// @Summary List the newest products
// @Tags products
// @Produce json
// @Success 200 {array} model.Product
// @Router /products/latest [get]
func (h *ProductHandler) Latest(c echo.Context) error {
	products, err := h.catalog.LatestProducts(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// Available godoc
// @Summary List products in stock
// @Tags products
// @Produce json
// @Param page query int false "Zero-based page" default(0)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} model.Page[model.Product]
// @Failure 400 {object} errors.ErrorResponse
// @Router /products/available [get]
func (h *ProductHandler) Available(c echo.Context) error {
	page, size, err := pageParams(c)
	if err != nil {
		return err
	}

	products, err := h.catalog.AvailableProducts(c.Request().Context(), page, size)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct godoc
// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ProductRequest true "Product data"
// @Success 201 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products [post]
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product, err := h.catalog.CreateProduct(c.Request().Context(), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// UpdateProduct godoc
// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Param request body ProductRequest true "Product data"
// @Success 200 {object} model.Product
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /products/{id} [put]
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var req ProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	product, err := h.catalog.UpdateProduct(c.Request().Context(), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeleteProduct godoc
// @Summary Delete product
// @Tags products
// @Security BearerAuth
// @Param id path int true "Product ID"
// @Success 204
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	if err := h.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

