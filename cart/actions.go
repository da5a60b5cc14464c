package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"boulangerie/pricing"
)

// Kind names an action in its tagged wire form
type Kind string

const (
	KindAddItem                Kind = "AddItem"
	KindRemoveItem             Kind = "RemoveItem"
	KindSetQuantity            Kind = "SetQuantity"
	KindApplyDiscount          Kind = "ApplyDiscount"
	KindSetShippingFee         Kind = "SetShippingFee"
	KindClearCart              Kind = "ClearCart"
	KindInitializeFromSnapshot Kind = "InitializeFromSnapshot"
)

var (
	ErrUnknownAction = errors.New("unknown cart action")
	ErrMissingField  = errors.New("missing action field")
)

// Action is a discrete cart transition
type Action interface {
	Kind() Kind
	apply(State) State
}

// AddItem increments the product's line or appends a new line with quantity 1
type AddItem struct {
	Product Product
}

func (AddItem) Kind() Kind { return KindAddItem }

func (a AddItem) apply(s State) State {
	s = s.clone()
	price := a.Product.UnitPrice()
	if i := s.indexOf(a.Product.ID); i >= 0 {
		s.Lines[i].Quantity++
	} else {
		s.Lines = append(s.Lines, Line{Product: a.Product, Quantity: 1})
	}
	return s.withSubtotal(s.Subtotal.Add(price))
}

// RemoveItem drops the product's line; absent products are a no-op
type RemoveItem struct {
	ProductID string
}

func (RemoveItem) Kind() Kind { return KindRemoveItem }

func (a RemoveItem) apply(s State) State {
	i := s.indexOf(a.ProductID)
	if i < 0 {
		return s
	}
	removed := s.Lines[i]
	lines := make([]Line, 0, len(s.Lines)-1)
	lines = append(lines, s.Lines[:i]...)
	lines = append(lines, s.Lines[i+1:]...)
	s.Lines = lines
	return s.withSubtotal(s.Subtotal.Sub(removed.Total()))
}

// SetQuantity sets a line's quantity; quantity <= 0 removes the line
type SetQuantity struct {
	ProductID string
	Quantity  int
}

func (SetQuantity) Kind() Kind { return KindSetQuantity }

func (a SetQuantity) apply(s State) State {
	if a.Quantity <= 0 {
		return RemoveItem{ProductID: a.ProductID}.apply(s)
	}
	i := s.indexOf(a.ProductID)
	if i < 0 {
		return s
	}
	s = s.clone()
	line := s.Lines[i]
	delta := decimal.NewFromInt(int64(a.Quantity - line.Quantity))
	s.Lines[i].Quantity = a.Quantity
	return s.withSubtotal(s.Subtotal.Add(delta.Mul(line.UnitPrice())))
}

// ApplyDiscount sets the discount. The amount is not checked against the subtotal.
type ApplyDiscount struct {
	Amount decimal.Decimal
}

func (ApplyDiscount) Kind() Kind { return KindApplyDiscount }

func (a ApplyDiscount) apply(s State) State {
	s.Discount = a.Amount
	s.Total = totalOf(s)
	return s
}

// SetShippingFee overrides the derived shipping fee until the next line mutation
type SetShippingFee struct {
	Amount decimal.Decimal
}

func (SetShippingFee) Kind() Kind { return KindSetShippingFee }

func (a SetShippingFee) apply(s State) State {
	s.ShippingFee = a.Amount
	s.Total = totalOf(s)
	return s
}

// ClearCart resets to the empty state
type ClearCart struct{}

func (ClearCart) Kind() Kind { return KindClearCart }

func (ClearCart) apply(State) State { return Empty() }

// InitializeFromSnapshot rebuilds the cart from persisted lines. Discount is
// reset to zero. Malformed lines yield the empty state.
type InitializeFromSnapshot struct {
	Lines []Line
}

func (InitializeFromSnapshot) Kind() Kind { return KindInitializeFromSnapshot }

func (a InitializeFromSnapshot) apply(State) State {
	if len(a.Lines) == 0 || !validLines(a.Lines) {
		return Empty()
	}
	s := Empty()
	s.Lines = make([]Line, len(a.Lines))
	copy(s.Lines, a.Lines)
	subtotal := decimal.Zero
	for _, l := range s.Lines {
		subtotal = subtotal.Add(l.Total())
	}
	return s.withSubtotal(subtotal)
}

func totalOf(s State) decimal.Decimal {
	return pricing.Total(s.Subtotal, s.Discount, s.ShippingFee)
}

// validLines rejects duplicate ids, empty ids and quantities below 1
func validLines(lines []Line) bool {
	seen := make(map[string]struct{}, len(lines))
	for _, l := range lines {
		if l.ID == "" || l.Quantity < 1 {
			return false
		}
		if _, dup := seen[l.ID]; dup {
			return false
		}
		seen[l.ID] = struct{}{}
	}
	return true
}

// Envelope is the tagged wire form of an action:
// {"kind": "SetQuantity", "productId": "A", "quantity": 2}
type Envelope struct {
	Kind      Kind             `json:"kind"`
	Product   *Product         `json:"product,omitempty"`
	ProductID string           `json:"productId,omitempty"`
	Quantity  *int             `json:"quantity,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Lines     []Line           `json:"lines,omitempty"`
}

// Action converts the envelope to its action. For AddItem a bare productId is
// accepted and yields a product carrying only its id.
func (e Envelope) Action() (Action, error) {
	switch e.Kind {
	case KindAddItem:
		if e.Product != nil && e.Product.ID != "" {
			return AddItem{Product: *e.Product}, nil
		}
		if e.ProductID != "" {
			return AddItem{Product: Product{ID: e.ProductID}}, nil
		}
		return nil, fmt.Errorf("%w: product", ErrMissingField)
	case KindRemoveItem:
		if e.ProductID == "" {
			return nil, fmt.Errorf("%w: productId", ErrMissingField)
		}
		return RemoveItem{ProductID: e.ProductID}, nil
	case KindSetQuantity:
		if e.ProductID == "" {
			return nil, fmt.Errorf("%w: productId", ErrMissingField)
		}
		if e.Quantity == nil {
			return nil, fmt.Errorf("%w: quantity", ErrMissingField)
		}
		return SetQuantity{ProductID: e.ProductID, Quantity: *e.Quantity}, nil
	case KindApplyDiscount:
		if e.Amount == nil {
			return nil, fmt.Errorf("%w: amount", ErrMissingField)
		}
		return ApplyDiscount{Amount: *e.Amount}, nil
	case KindSetShippingFee:
		if e.Amount == nil {
			return nil, fmt.Errorf("%w: amount", ErrMissingField)
		}
		return SetShippingFee{Amount: *e.Amount}, nil
	case KindClearCart:
		return ClearCart{}, nil
	case KindInitializeFromSnapshot:
		return InitializeFromSnapshot{Lines: e.Lines}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, e.Kind)
	}
}

// ParseAction decodes a tagged JSON action
func ParseAction(data []byte) (Action, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode action: %w", err)
	}
	return e.Action()
}
