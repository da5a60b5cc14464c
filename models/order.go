package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusDelivered = "delivered"
)

var orderStatuses = map[string]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusCanceled:  true,
	StatusPreparing: true,
	StatusReady:     true,
	StatusDelivered: true,
}

// ValidOrderStatus reports whether s is a known order status
func ValidOrderStatus(s string) bool {
	return orderStatuses[s]
}

// Customer holds delivery details
type Customer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// OrderLine is a product frozen into an order at its effective unit price
type OrderLine struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// HistoryEvent records a status change
type HistoryEvent struct {
	Status  string    `json:"status"`
	Date    time.Time `json:"date"`
	Comment string    `json:"comment,omitempty"`
}

// Order represents a customer order
type Order struct {
	ID          string          `json:"id"`
	Lines       []OrderLine     `json:"lines"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	Customer    Customer        `json:"customer"`
	Status      string          `json:"status"`
	Notes       string          `json:"notes,omitempty"`
	History     []HistoryEvent  `json:"history"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CreateOrderRequest is the body of POST /api/orders
type CreateOrderRequest struct {
	Lines      []OrderLine     `json:"lines"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Customer   Customer        `json:"customer"`
	Status     string          `json:"status,omitempty"`
	Notes      string          `json:"notes,omitempty"`
}

// CheckoutRequest is the body of POST /api/cart/checkout
// Example: {"customer": {"name": "Marie", "phone": "0601020304", "address": "3 rue du Four"}, "notes": "Sans sésame"}
type CheckoutRequest struct {
	Customer Customer `json:"customer"`
	Notes    string   `json:"notes,omitempty"`
}

// UpdateOrderStatusRequest is the body of PUT /admin/orders/{id}
type UpdateOrderStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

// NewOrdersResponse lists orders created in the last 24 hours
type NewOrdersResponse struct {
	Orders []Order `json:"orders"`
	Count  int     `json:"count"`
}

// DeleteOrdersResponse reports a bulk delete
type DeleteOrdersResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// WebhookNewOrderRequest is the body of POST /api/webhooks/new-order
type WebhookNewOrderRequest struct {
	OrderID string `json:"orderId"`
}
