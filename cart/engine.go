// Package cart implements the shopping-cart pricing engine: a pure reducer
// over cart lines and their derived totals, plus the per-session store that
// persists cart snapshots.
package cart

import (
	"github.com/shopspring/decimal"

	"boulangerie/pricing"
)

var rules = pricing.Default()

// Product is the descriptor of a catalog product as it enters the cart.
// Name, image and category are carried for display only.
type Product struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Image       string           `json:"image"`
	Category    string           `json:"category"`
	BasePrice   decimal.Decimal  `json:"basePrice"`
	PromoPrice  *decimal.Decimal `json:"promoPrice,omitempty"`
	OnPromotion bool             `json:"onPromotion"`
}

// UnitPrice returns the effective unit price of the product
func (p Product) UnitPrice() decimal.Decimal {
	return pricing.EffectiveUnitPrice(p.BasePrice, p.PromoPrice, p.OnPromotion)
}

// Line is one product entry in the cart. Quantity is always >= 1.
type Line struct {
	Product
	Quantity int `json:"quantity"`
}

// Total returns unit price * quantity
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// State is the cart aggregate. Subtotal, ShippingFee and Total are derived
// from Lines and Discount and are never set independently.
type State struct {
	Lines       []Line          `json:"lines"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	Total       decimal.Decimal `json:"total"`
}

// Empty returns the initial cart state
func Empty() State {
	return State{
		Lines:       []Line{},
		Subtotal:    decimal.Zero,
		Discount:    decimal.Zero,
		ShippingFee: decimal.Zero,
		Total:       decimal.Zero,
	}
}

// IsEmpty reports whether the cart holds no lines
func (s State) IsEmpty() bool {
	return len(s.Lines) == 0
}

// ItemCount returns the number of units across all lines
func (s State) ItemCount() int {
	n := 0
	for _, l := range s.Lines {
		n += l.Quantity
	}
	return n
}

// Find returns the line for a product id
func (s State) Find(productID string) (Line, bool) {
	if i := s.indexOf(productID); i >= 0 {
		return s.Lines[i], true
	}
	return Line{}, false
}

func (s State) indexOf(productID string) int {
	for i, l := range s.Lines {
		if l.ID == productID {
			return i
		}
	}
	return -1
}

// clone copies the line slice so a transition never aliases its input
func (s State) clone() State {
	lines := make([]Line, len(s.Lines))
	copy(lines, s.Lines)
	s.Lines = lines
	return s
}

// withSubtotal re-derives shipping fee and total for a new subtotal
func (s State) withSubtotal(subtotal decimal.Decimal) State {
	s.Subtotal = subtotal
	s.ShippingFee = rules.ShippingFee(subtotal)
	s.Total = pricing.Total(s.Subtotal, s.Discount, s.ShippingFee)
	return s
}

// Reduce applies an action to a state and returns the resulting state.
// The input state is not modified. A nil action is the identity.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	if s.Lines == nil {
		s.Lines = []Line{}
	}
	return a.apply(s)
}

// ReduceAll folds a sequence of actions over a state
func ReduceAll(s State, actions ...Action) State {
	for _, a := range actions {
		s = Reduce(s, a)
	}
	return s
}
