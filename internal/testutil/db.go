// Package testutil provides an in-memory SQLite store for package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"storefront/internal/db"
	"storefront/internal/model"
)

var dbSeq atomic.Int64

// NewDB opens a fresh migrated in-memory SQLite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))

	gormDB, err := db.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	// One connection keeps the in-memory database alive and serializes writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gormDB
}

// NewFileDB opens a migrated SQLite database file in a temp dir with up to
// maxOpen connections, for tests that need real concurrent sessions.
// Writers wait on the lock instead of failing with SQLITE_BUSY.
func NewFileDB(t testing.TB, maxOpen int) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "store.db") + "?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate"
	gormDB, err := db.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.Migrate(gormDB); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gormDB
}

// MustCreate inserts value or fails the test.
func MustCreate(t testing.TB, gormDB *gorm.DB, value interface{}) {
	t.Helper()
	if err := gormDB.Create(value).Error; err != nil {
		t.Fatalf("create %T: %v", value, err)
	}
}

// SeedProduct inserts a category (if needed) and a product with the given price and stock.
func SeedProduct(t testing.TB, gormDB *gorm.DB, name, price string, stock int) *model.Product {
	t.Helper()

	var category model.Category
	if err := gormDB.Where(model.Category{Name: "Test"}).FirstOrCreate(&category).Error; err != nil {
		t.Fatalf("category: %v", err)
	}
	product := &model.Product{
		Name:          name,
		Price:         decimal.RequireFromString(price),
		StockQuantity: stock,
		CategoryID:    category.ID,
	}
	MustCreate(t, gormDB, product)
	return product
}

// SeedUser inserts a user with the given role and a placeholder password hash.
func SeedUser(t testing.TB, gormDB *gorm.DB, username string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
		FirstName:    "Test",
		LastName:     "User",
	}
	MustCreate(t, gormDB, user)
	return user
}

// Stock reloads a product's stock quantity.
func Stock(t testing.TB, gormDB *gorm.DB, productID uint) int {
	t.Helper()
	var product model.Product
	if err := gormDB.First(&product, productID).Error; err != nil {
		t.Fatalf("reload product %d: %v", productID, err)
	}
	return product.StockQuantity
}
