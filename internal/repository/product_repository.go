package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/model"
)

// ProductFilter narrows a product query. Zero values mean "no constraint".
type ProductFilter struct {
	CategoryID  uint
	NameLike    string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	InStockOnly bool
}

// ProductSort orders a product query by a whitelisted field.
type ProductSort struct {
	Field string
	Desc  bool
}

// productSortColumns maps API sort fields onto columns.
var productSortColumns = map[string]string{
	"id":            "id",
	"name":          "name",
	"price":         "price",
	"stockQuantity": "stock_quantity",
	"createdAt":     "created_at",
}

// ValidProductSortField reports whether field may be used in ProductSort.
func ValidProductSortField(field string) bool {
	_, ok := productSortColumns[field]
	return ok
}

// ProductRepository defines product persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Product, error)
	Find(ctx context.Context, filter ProductFilter, sort ProductSort, page Pagination) (model.Page[model.Product], error)
	Latest(ctx context.Context, limit int) ([]model.Product, error)
	// DecrementStock subtracts quantity only if enough stock remains and
	// reports whether the row was updated.
	DecrementStock(ctx context.Context, id uint, quantity int) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create creates a new product.
func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

// Update updates an existing product.
func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(product).Error
}

// Delete removes a product by ID.
func (r *productRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Product{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID finds a product by ID with its category.
func (r *productRepository) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Preload("Category").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDForUpdate finds a product by ID with a row-level lock. Only meaningful inside a transaction.
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).Clauses(lockForUpdate).
		First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// Find returns one page of products matching filter.
func (r *productRepository) Find(ctx context.Context, filter ProductFilter, sort ProductSort, page Pagination) (model.Page[model.Product], error) {
	page = page.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Product{}).Scopes(applyProductFilter(filter)).
		Count(&total).Error; err != nil {
		return model.Page[model.Product]{}, err
	}

	var products []model.Product
	if err := r.db.WithContext(ctx).Preload("Category").
		Scopes(applyProductFilter(filter), applyProductSort(sort), paginate(page)).
		Find(&products).Error; err != nil {
		return model.Page[model.Product]{}, err
	}
	return model.NewPage(products, page.Page, page.Size, total), nil
}

// Latest returns the most recently created products.
func (r *productRepository) Latest(ctx context.Context, limit int) ([]model.Product, error) {
	var products []model.Product
	if err := r.db.WithContext(ctx).Preload("Category").
		Order("created_at DESC").Order("id DESC").Limit(limit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// DecrementStock subtracts quantity from the product's stock when enough remains.
func (r *productRepository) DecrementStock(ctx context.Context, id uint, quantity int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock_quantity >= ?", id, quantity).
		Update("stock_quantity", gorm.Expr("stock_quantity - ?", quantity))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Count returns the number of products.
func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Count(&count).Error
	return count, err
}

func applyProductFilter(f ProductFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.CategoryID != 0 {
			db = db.Where("category_id = ?", f.CategoryID)
		}
		if f.NameLike != "" {
			db = db.Where("name LIKE ?", "%"+f.NameLike+"%")
		}
		if f.MinPrice != nil {
			db = db.Where("price >= ?", *f.MinPrice)
		}
		if f.MaxPrice != nil {
			db = db.Where("price <= ?", *f.MaxPrice)
		}
		if f.InStockOnly {
			db = db.Where("stock_quantity > ?", 0)
		}
		return db
	}
}

func applyProductSort(s ProductSort) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		column, ok := productSortColumns[s.Field]
		if !ok {
			column = "id"
		}
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: s.Desc})
		if column != "id" {
			db = db.Order("id ASC")
		}
		return db
	}
}
