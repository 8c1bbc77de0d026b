package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store bundles the repositories that share one database handle.
type Store interface {
	Users() UserRepository
	Categories() CategoryRepository
	Products() ProductRepository
	Orders() OrderRepository
	// WithTransaction runs fn inside a database transaction. Every repository
	// reached through tx uses that transaction; returning an error rolls it back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type store struct {
	db *gorm.DB
}

// NewStore creates a GORM-backed store.
func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

func (s *store) Users() UserRepository         { return NewUserRepository(s.db) }
func (s *store) Categories() CategoryRepository { return NewCategoryRepository(s.db) }
func (s *store) Products() ProductRepository   { return NewProductRepository(s.db) }
func (s *store) Orders() OrderRepository       { return NewOrderRepository(s.db) }

// WithTransaction executes a function within a database transaction.
func (s *store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &store{db: tx})
	})
}

// Pagination is a zero-based page request.
type Pagination struct {
	Page int
	Size int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Normalize clamps page and size into a usable range.
func (p Pagination) Normalize() Pagination {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p Pagination) Offset() int {
	return p.Page * p.Size
}

func paginate(p Pagination) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(p.Offset()).Limit(p.Size)
	}
}

// lockForUpdate renders SELECT ... FOR UPDATE; the SQLite dialect drops it.
var lockForUpdate = clause.Locking{Strength: "UPDATE"}
