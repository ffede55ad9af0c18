package model

import (
	"time"

	"github.com/ikkim/cosmetica-backend/pkg/money"
	"gorm.io/gorm"
)

type ProductCategory string

const (
	CategoryAcrylic ProductCategory = "acrylic"
	CategoryGel     ProductCategory = "gel"
	CategoryTools   ProductCategory = "tools"
	CategoryKits    ProductCategory = "kits"
	CategoryCare    ProductCategory = "care"
)

// Product is a catalog entry. ID is a stable slug such as "acr-01".
type Product struct {
	ID            string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name          string          `gorm:"not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Category      ProductCategory `gorm:"type:varchar(50);index" json:"category"`
	Price         money.Amount    `gorm:"not null" json:"price"`
	ImageURL      string          `json:"image_url"`
	Variants      []string        `gorm:"type:text;serializer:json" json:"variants"` // shades, sizes, finishes
	StockQuantity int             `gorm:"default:0" json:"stock_quantity"`
	Active        bool            `gorm:"index" json:"active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// HasVariant reports whether v is selectable. Products without variants
// only accept the empty label.
func (p *Product) HasVariant(v string) bool {
	if len(p.Variants) == 0 {
		return v == ""
	}
	for _, candidate := range p.Variants {
		if candidate == v {
			return true
		}
	}
	return false
}
