package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"boulangerie/cart"
	"boulangerie/logging"
	"boulangerie/models"
	"boulangerie/pricing"
	"boulangerie/repository"
)

var (
	// ErrEmptyCart is returned when checking out a cart without lines
	ErrEmptyCart = errors.New("cart is empty")
	// ErrMissingCustomer is returned when name, phone or address is blank
	ErrMissingCustomer = errors.New("customer name, phone and address are required")
	// ErrInvalidOrder is returned for malformed order payloads
	ErrInvalidOrder = errors.New("invalid order")
)

// CheckoutService turns carts and order payloads into persisted orders
type CheckoutService struct {
	sessions      *cart.Sessions
	orders        repository.OrderRepositoryInterface
	notifications *NotificationCenter
	notifier      Notifier
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(
	sessions *cart.Sessions,
	orders repository.OrderRepositoryInterface,
	notifications *NotificationCenter,
	notifier Notifier,
) *CheckoutService {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &CheckoutService{
		sessions:      sessions,
		orders:        orders,
		notifications: notifications,
		notifier:      notifier,
	}
}

func validateCustomer(c models.Customer) error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.Phone) == "" || strings.TrimSpace(c.Address) == "" {
		return ErrMissingCustomer
	}
	return nil
}

// OrderFromCart freezes the cart lines at their effective unit price
func OrderFromCart(state cart.State, req *models.CheckoutRequest) *models.Order {
	lines := make([]models.OrderLine, 0, len(state.Lines))
	for _, l := range state.Lines {
		lines = append(lines, models.OrderLine{
			ProductID: l.ID,
			Name:      l.Name,
			Image:     l.Image,
			Price:     l.UnitPrice(),
			Quantity:  l.Quantity,
		})
	}
	return &models.Order{
		Lines:       lines,
		Subtotal:    state.Subtotal,
		Discount:    state.Discount,
		ShippingFee: state.ShippingFee,
		TotalPrice:  state.Total,
		Customer:    req.Customer,
		Status:      models.StatusPending,
		Notes:       strings.TrimSpace(req.Notes),
	}
}

// Checkout places an order for the session's cart and takes the ordered
// lines out of it
func (s *CheckoutService) Checkout(ctx context.Context, sessionID string, req *models.CheckoutRequest) (*models.Order, error) {
	if err := validateCustomer(req.Customer); err != nil {
		return nil, err
	}

	current, err := s.sessions.View(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if current.IsEmpty() {
		return nil, ErrEmptyCart
	}

	store, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	state := store.State()
	if state.IsEmpty() {
		return nil, ErrEmptyCart
	}

	order, err := s.orders.Create(ctx, OrderFromCart(state, req))
	if err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	if _, err := store.Settle(ctx, state.Lines); err != nil {
		logging.L().Warnf("⚠️  Checkout: order %s saved but cart %s not cleared: %v", order.ID, sessionID, err)
	}

	s.announce(ctx, order)
	return order, nil
}

// CreateOrder stores an order from a full payload. Totals are recomputed
// from the lines with the storefront shipping rules.
func (s *CheckoutService) CreateOrder(ctx context.Context, req *models.CreateOrderRequest) (*models.Order, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line is required", ErrInvalidOrder)
	}
	if err := validateCustomer(req.Customer); err != nil {
		return nil, err
	}
	if req.Status != "" && !models.ValidOrderStatus(req.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidOrder, req.Status)
	}

	subtotal := decimal.Zero
	for i, l := range req.Lines {
		if strings.TrimSpace(l.ProductID) == "" || strings.TrimSpace(l.Name) == "" {
			return nil, fmt.Errorf("%w: line %d needs productId and name", ErrInvalidOrder, i)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: line %d quantity must be at least 1", ErrInvalidOrder, i)
		}
		if l.Price.IsNegative() {
			return nil, fmt.Errorf("%w: line %d price cannot be negative", ErrInvalidOrder, i)
		}
		subtotal = subtotal.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	shipping := pricing.Default().ShippingFee(subtotal)
	total := pricing.Total(subtotal, decimal.Zero, shipping)
	if !req.TotalPrice.IsZero() && !req.TotalPrice.Equal(total) {
		logging.L().Warnf("⚠️  CreateOrder: client total %s differs from computed %s", req.TotalPrice.StringFixed(2), total.StringFixed(2))
	}

	order, err := s.orders.Create(ctx, &models.Order{
		Lines:       req.Lines,
		Subtotal:    subtotal,
		Discount:    decimal.Zero,
		ShippingFee: shipping,
		TotalPrice:  total,
		Customer:    req.Customer,
		Status:      req.Status,
		Notes:       strings.TrimSpace(req.Notes),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.announce(ctx, order)
	return order, nil
}

func (s *CheckoutService) announce(ctx context.Context, order *models.Order) {
	if s.notifications != nil {
		s.notifications.Push(*order)
	}
	if err := s.notifier.NotifyNewOrder(ctx, order); err != nil {
		logging.L().Warnf("⚠️  Failed to announce order %s: %v", order.ID, err)
	}
}
