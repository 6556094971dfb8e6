package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a garment in the catalog. Garments are made to order, so there is no stock count.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	SKU         string          `json:"sku" gorm:"uniqueIndex;type:varchar(50)"`
	Name        string          `json:"name" gorm:"type:varchar(100)"`
	Slug        string          `json:"slug" gorm:"uniqueIndex;type:varchar(120)"`
	Description string          `json:"description" gorm:"type:text"`
	Category    string          `json:"category" gorm:"index;type:varchar(50)"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2)"`
	Colors      []string        `json:"colors" gorm:"serializer:json"`
	Sizes       []string        `json:"sizes" gorm:"serializer:json"`
	ImageURL    string          `json:"image_url" gorm:"type:varchar(500)"`
	Active      bool            `json:"active" gorm:"index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// HasColor reports whether color is one of the product's options.
// A product without declared colors accepts an empty choice only.
func (p *Product) HasColor(color string) bool {
	return hasOption(p.Colors, color)
}

// HasSize reports whether size is one of the product's options.
func (p *Product) HasSize(size string) bool {
	return hasOption(p.Sizes, size)
}

func hasOption(options []string, choice string) bool {
	if len(options) == 0 {
		return choice == ""
	}
	for _, o := range options {
		if o == choice {
			return true
		}
	}
	return false
}
