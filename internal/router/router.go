package router

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"storefront/internal/auth"
	"storefront/internal/handler"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	log *slog.Logger,
	authMiddleware echo.MiddlewareFunc,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	productHandler *handler.ProductHandler,
	categoryHandler *handler.CategoryHandler,
	orderHandler *handler.OrderHandler,
	seedHandler *handler.SeedHandler,
) {
	e.Use(middleware.RequestID())
	e.Use(logger.Middleware(log))
	e.Use(logger.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(metrics.Middleware())
	e.Use(middleware.CORS())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", metrics.Handler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/signup", authHandler.Register)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/signin", authHandler.Login)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	api.GET("/products", productHandler.ListProducts)
	api.GET("/products/:id", productHandler.GetProduct)
	api.GET("/products/category/:categoryId", productHandler.ListByCategory)
	api.GET("/products/search", productHandler.Search)
	api.GET("/products/price-range", productHandler.PriceRange)
	api.GET("/products/latest", productHandler.Latest)
	api.GET("/products/available", productHandler.Available)
	api.GET("/categories", categoryHandler.ListCategories)
	api.GET("/categories/:id", categoryHandler.GetCategory)

	// Secured routes (require JWT authentication). Middleware is attached per
	// route so unknown /api paths stay 404.
	secured := []echo.MiddlewareFunc{authMiddleware}

	api.GET("/me", userHandler.GetMe, secured...)
	api.PUT("/me", userHandler.UpdateMe, secured...)

	api.POST("/orders", orderHandler.PlaceOrder, secured...)
	api.GET("/orders/my-orders", orderHandler.MyOrders, secured...)
	api.GET("/orders/my-orders/count", orderHandler.MyOrderCount, secured...)
	api.GET("/orders/my-orders/status/:status", orderHandler.MyOrdersByStatus, secured...)
	api.GET("/orders/:id", orderHandler.GetOrder, secured...)

	// Admin routes
	admin := []echo.MiddlewareFunc{authMiddleware, auth.RequireRole(model.RoleAdmin)}

	api.GET("/users", userHandler.ListUsers, admin...)

	api.GET("/orders", orderHandler.ListOrders, admin...)
	api.PUT("/orders/:id/status", orderHandler.UpdateStatus, admin...)
	api.GET("/orders/:id/history", orderHandler.StatusHistory, admin...)

	api.POST("/products", productHandler.CreateProduct, admin...)
	api.PUT("/products/:id", productHandler.UpdateProduct, admin...)
	api.DELETE("/products/:id", productHandler.DeleteProduct, admin...)
	api.POST("/categories", categoryHandler.CreateCategory, admin...)

	api.POST("/admin/seed", seedHandler.Seed, admin...)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
