package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// FreeShippingThreshold is the subtotal from which delivery is free.
	FreeShippingThreshold = decimal.RequireFromString("30.00")
	// StandardShippingFee is charged below FreeShippingThreshold.
	StandardShippingFee = decimal.RequireFromString("3.50")
)

// Rules holds the storefront pricing configuration
type Rules struct {
	FreeShippingThreshold decimal.Decimal
	StandardShippingFee   decimal.Decimal
}

// Default returns the bakery's standard rules
func Default() Rules {
	return Rules{
		FreeShippingThreshold: FreeShippingThreshold,
		StandardShippingFee:   StandardShippingFee,
	}
}

// ShippingFee derives the delivery fee for a subtotal
func (r Rules) ShippingFee(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(r.FreeShippingThreshold) {
		return decimal.Zero
	}
	return r.StandardShippingFee
}

// Total computes max(0, subtotal - discount) + shippingFee
func Total(subtotal, discount, shippingFee decimal.Decimal) decimal.Decimal {
	net := subtotal.Sub(discount)
	if net.IsNegative() {
		net = decimal.Zero
	}
	return net.Add(shippingFee)
}

// EffectiveUnitPrice returns the promotional price when the product is on
// promotion and a positive promotional price is set, otherwise the base price.
func EffectiveUnitPrice(base decimal.Decimal, promo *decimal.Decimal, onPromotion bool) decimal.Decimal {
	if onPromotion && promo != nil && promo.IsPositive() {
		return *promo
	}
	return base
}

// ValidatePromotion checks a product's prices before they enter the catalog.
// A nil promo is always valid.
func ValidatePromotion(base decimal.Decimal, promo *decimal.Decimal) error {
	if base.IsNegative() {
		return fmt.Errorf("price cannot be negative")
	}
	if promo == nil {
		return nil
	}
	if !promo.IsPositive() {
		return fmt.Errorf("promo price must be greater than 0")
	}
	if !promo.LessThan(base) {
		return fmt.Errorf("promo price %s must be lower than price %s", promo.StringFixed(2), base.StringFixed(2))
	}
	return nil
}
