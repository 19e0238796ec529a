package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductStatus is the sale state of a product.
type ProductStatus int

const (
	ProductOnSale   ProductStatus = 1
	ProductOffShelf ProductStatus = 2
	ProductDeleted  ProductStatus = 3
)

func (s ProductStatus) Valid() bool {
	return s >= ProductOnSale && s <= ProductDeleted
}

// Product is the products table. SubImages is a comma separated list of file names.
type Product struct {
	Base
	CategoryID uint   `gorm:"index;not null"`
	Name       string `gorm:"not null"`
	Subtitle   string
	MainImage  string
	SubImages  string          `gorm:"type:text"`
	Detail     string          `gorm:"type:text"`
	Price      decimal.Decimal `gorm:"type:decimal(20,2);not null"`
	Stock      int             `gorm:"not null;default:0"`
	Status     ProductStatus   `gorm:"not null;default:1"`
}

func (p *Product) OnSale() bool { return p.Status == ProductOnSale }

// FirstSubImage returns the first non-blank entry of SubImages.
func (p *Product) FirstSubImage() string {
	for _, s := range strings.Split(p.SubImages, ",") {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
