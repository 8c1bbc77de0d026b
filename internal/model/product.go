package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. StockQuantity is decremented when an order is placed.
type Product struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"size:255;not null;index"`
	Description   string          `json:"description" gorm:"type:text"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;index"`
	StockQuantity int             `json:"stockQuantity" gorm:"not null;default:0"`
	ImageURL      string          `json:"imageUrl" gorm:"size:500"`
	CategoryID    uint            `json:"categoryId" gorm:"not null;index"`
	CreatedAt     time.Time       `json:"createdAt" gorm:"index"`
	UpdatedAt     time.Time       `json:"updatedAt"`

	// Relations
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// InStock reports whether the product can cover quantity units.
func (p *Product) InStock(quantity int) bool {
	return p.StockQuantity >= quantity
}
