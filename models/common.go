package models

import (
	"github.com/shopspring/decimal"

	"boulangerie/cart"
)

func init() {
	// money travels as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MessageResponse is a plain acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// CartResponse wraps the cart state with its session id
type CartResponse struct {
	SessionID string `json:"sessionId"`
	ItemCount int    `json:"itemCount"`
	cart.State
}

// AddToCartRequest is the body of POST /api/cart/items
type AddToCartRequest struct {
	ProductID string `json:"productId"`
}

// SetQuantityRequest is the body of PUT /api/cart/items/{id}
type SetQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

// AmountRequest carries a discount or shipping override
type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// LoginRequest is the body of POST /admin/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the admin bearer token
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

// NotificationSummary is the admin new-order badge state
type NotificationSummary struct {
	Unread int     `json:"unread"`
	Latest *Order  `json:"latest,omitempty"`
	Recent []Order `json:"recent"`
}
