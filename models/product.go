package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCategory is assigned to products created without a category
const DefaultCategory = "Non classé"

// Product represents a catalog product
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Image       string           `json:"image"`
	Images      []string         `json:"images"`
	Price       decimal.Decimal  `json:"price"`
	Description string           `json:"description"`
	Ingredients []string         `json:"ingredients"`
	Category    string           `json:"category"`
	OnPromotion bool             `json:"onPromotion"`
	PromoPrice  *decimal.Decimal `json:"promoPrice,omitempty"`
	Featured    bool             `json:"featured"`
	Available   bool             `json:"available"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// ProductRequest is the body of product create and update calls.
// Example: {"name": "Baguette Tradition", "image": "https://...", "price": 1.20,
// "description": "...", "ingredients": ["Farine de blé", "Eau"], "category": "Pains"}
type ProductRequest struct {
	Name        string           `json:"name"`
	Image       string           `json:"image"`
	Images      []string         `json:"images"`
	Price       decimal.Decimal  `json:"price"`
	Description string           `json:"description"`
	Ingredients []string         `json:"ingredients"`
	Category    string           `json:"category"`
	OnPromotion bool             `json:"onPromotion"`
	PromoPrice  *decimal.Decimal `json:"promoPrice,omitempty"`
	Featured    bool             `json:"featured"`
	Available   *bool            `json:"available,omitempty"`
}

// Product sort orders accepted by ProductFilter.Sort
const (
	SortPriceAsc     = "price_asc"
	SortPriceDesc    = "price_desc"
	SortAlphabetical = "alphabetical"
	SortNewest       = "newest"
	SortPopular      = "popular"
)

// ProductFilter holds optional catalog filters. Nil fields are ignored.
type ProductFilter struct {
	Search    *string
	Category  *string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Promotion *bool
	Available *bool
	Sort      string
}
