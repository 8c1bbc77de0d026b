package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront/internal/cache"
	apperrors "storefront/internal/errors"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"
)

const (
	catalogCacheTTL     = 5 * time.Minute
	categoriesCacheKey  = "categories"
	latestProductsLimit = 8
)

func productCacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
	ImageURL      string
	CategoryID    uint
}

// CatalogService exposes product and category browsing plus admin product management.
type CatalogService interface {
	ListProducts(ctx context.Context, page, size int, sortBy, sortDir string) (model.Page[model.Product], error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	ListByCategory(ctx context.Context, categoryID uint, page, size int) (model.Page[model.Product], error)
	SearchByName(ctx context.Context, name string, page, size int) (model.Page[model.Product], error)
	ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal, page, size int) (model.Page[model.Product], error)
	LatestProducts(ctx context.Context) ([]model.Product, error)
	AvailableProducts(ctx context.Context, page, size int) (model.Page[model.Product], error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id uint) (*model.Category, error)
	CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id uint, input ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error
	CreateCategory(ctx context.Context, name, description string) (*model.Category, error)
}

type catalogService struct {
	store repository.Store
	cache *cache.Client
}

// NewCatalogService builds a CatalogService with repository and cache.
func NewCatalogService(store repository.Store, cache *cache.Client) CatalogService {
	return &catalogService{store: store, cache: cache}
}

// ListProducts returns one page of products. Unknown sort fields fall back to id.
func (s *catalogService) ListProducts(ctx context.Context, page, size int, sortBy, sortDir string) (model.Page[model.Product], error) {
	sort := repository.ProductSort{Field: sortBy, Desc: strings.EqualFold(sortDir, "desc")}
	if !repository.ValidProductSortField(sortBy) {
		sort.Field = "id"
	}
	return s.find(ctx, repository.ProductFilter{}, sort, page, size)
}

// GetProduct returns a product, served from cache when possible.
func (s *catalogService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	var cached model.Product
	if s.cache.GetJSON(ctx, productCacheKey(id), &cached) {
		metrics.CacheResult(true)
		return &cached, nil
	}
	metrics.CacheResult(false)

	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", apperrors.ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	s.cache.SetJSON(ctx, productCacheKey(id), product, catalogCacheTTL)
	return product, nil
}

// ListByCategory returns one page of a category's products. An unknown
// category yields an empty page.
func (s *catalogService) ListByCategory(ctx context.Context, categoryID uint, page, size int) (model.Page[model.Product], error) {
	if _, err := s.store.Categories().FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			p := repository.Pagination{Page: page, Size: size}.Normalize()
			return model.NewPage[model.Product](nil, p.Page, p.Size, 0), nil
		}
		return model.Page[model.Product]{}, fmt.Errorf("get category: %w", err)
	}
	return s.find(ctx, repository.ProductFilter{CategoryID: categoryID}, repository.ProductSort{}, page, size)
}

// SearchByName returns products whose name contains name.
func (s *catalogService) SearchByName(ctx context.Context, name string, page, size int) (model.Page[model.Product], error) {
	return s.find(ctx, repository.ProductFilter{NameLike: strings.TrimSpace(name)}, repository.ProductSort{}, page, size)
}

// ListByPriceRange returns products priced within [minPrice, maxPrice].
func (s *catalogService) ListByPriceRange(ctx context.Context, minPrice, maxPrice decimal.Decimal, page, size int) (model.Page[model.Product], error) {
	if minPrice.IsNegative() || maxPrice.IsNegative() {
		return model.Page[model.Product]{}, apperrors.ErrInvalidPrice
	}
	filter := repository.ProductFilter{MinPrice: &minPrice, MaxPrice: &maxPrice}
	return s.find(ctx, filter, repository.ProductSort{Field: "price"}, page, size)
}

// LatestProducts returns the newest products.
func (s *catalogService) LatestProducts(ctx context.Context) ([]model.Product, error) {
	products, err := s.store.Products().Latest(ctx, latestProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("latest products: %w", err)
	}
	return products, nil
}

// AvailableProducts returns products that are in stock.
func (s *catalogService) AvailableProducts(ctx context.Context, page, size int) (model.Page[model.Product], error) {
	return s.find(ctx, repository.ProductFilter{InStockOnly: true}, repository.ProductSort{}, page, size)
}

func (s *catalogService) find(ctx context.Context, filter repository.ProductFilter, sort repository.ProductSort, page, size int) (model.Page[model.Product], error) {
	products, err := s.store.Products().Find(ctx, filter, sort, repository.Pagination{Page: page, Size: size})
	if err != nil {
		return model.Page[model.Product]{}, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// ListCategories returns every category, served from cache when possible.
func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cached []model.Category
	if s.cache.GetJSON(ctx, categoriesCacheKey, &cached) {
		metrics.CacheResult(true)
		return cached, nil
	}
	metrics.CacheResult(false)

	categories, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	s.cache.SetJSON(ctx, categoriesCacheKey, categories, catalogCacheTTL)
	return categories, nil
}

// GetCategory returns a category by id.
func (s *catalogService) GetCategory(ctx context.Context, id uint) (*model.Category, error) {
	category, err := s.store.Categories().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", apperrors.ErrCategoryNotFound, id)
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return category, nil
}

// CreateProduct adds a product to an existing category.
func (s *catalogService) CreateProduct(ctx context.Context, input ProductInput) (*model.Product, error) {
	if err := s.validateProduct(ctx, input); err != nil {
		return nil, err
	}

	product := &model.Product{}
	applyProductInput(product, input)
	if err := s.store.Products().Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	logger.FromContext(ctx).Info("product created", "product_id", product.ID, "name", product.Name)
	return s.reload(ctx, product.ID)
}

// UpdateProduct overwrites a product's writable fields.
func (s *catalogService) UpdateProduct(ctx context.Context, id uint, input ProductInput) (*model.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", apperrors.ErrProductNotFound, id)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if err := s.validateProduct(ctx, input); err != nil {
		return nil, err
	}

	applyProductInput(product, input)
	product.Category = nil
	if err := s.store.Products().Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	_ = s.cache.Delete(ctx, productCacheKey(id))

	logger.FromContext(ctx).Info("product updated", "product_id", id)
	return s.reload(ctx, id)
}

// DeleteProduct removes a product that no order references.
func (s *catalogService) DeleteProduct(ctx context.Context, id uint) error {
	referenced, err := s.store.Orders().CountItemsForProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("count order items: %w", err)
	}
	if referenced > 0 {
		return fmt.Errorf("%w: %d", apperrors.ErrProductInUse, id)
	}

	if err := s.store.Products().Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %d", apperrors.ErrProductNotFound, id)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	_ = s.cache.Delete(ctx, productCacheKey(id))

	logger.FromContext(ctx).Info("product deleted", "product_id", id)
	return nil
}

// CreateCategory adds a category with a unique name.
func (s *catalogService) CreateCategory(ctx context.Context, name, description string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if _, err := s.store.Categories().FindByName(ctx, name); err == nil {
		return nil, apperrors.ErrCategoryNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check category name: %w", err)
	}

	category := &model.Category{Name: name, Description: description}
	if err := s.store.Categories().Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrCategoryNameTaken
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	_ = s.cache.Delete(ctx, categoriesCacheKey)
	return category, nil
}

func (s *catalogService) validateProduct(ctx context.Context, input ProductInput) error {
	if input.Price.IsNegative() {
		return apperrors.ErrInvalidPrice
	}
	if input.StockQuantity < 0 {
		return apperrors.ErrInvalidStockQuantity
	}
	if _, err := s.GetCategory(ctx, input.CategoryID); err != nil {
		return err
	}
	return nil
}

func (s *catalogService) reload(ctx context.Context, id uint) (*model.Product, error) {
	product, err := s.store.Products().FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload product: %w", err)
	}
	return product, nil
}

func applyProductInput(p *model.Product, in ProductInput) {
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.StockQuantity = in.StockQuantity
	p.ImageURL = in.ImageURL
	p.CategoryID = in.CategoryID
}
