package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boulangerie/cart"
	"boulangerie/models"
	"boulangerie/repository/repotest"
	"boulangerie/storage"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type checkoutFixture struct {
	sessions *cart.Sessions
	orders   *repotest.Orders
	center   *NotificationCenter
	notifier *recordingNotifier
	service  *CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		sessions: cart.NewSessions(storage.NewMemoryStore()),
		orders:   repotest.NewOrders(),
		notifier: &recordingNotifier{},
	}
	f.center = NewNotificationCenter(f.orders, 0)
	f.service = NewCheckoutService(f.sessions, f.orders, f.center, f.notifier)
	return f
}

var customer = models.Customer{Name: "Marie", Phone: "0601020304", Address: "3 rue du Four"}

func TestCheckout_PlacesOrderAndClearsCart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newCheckoutFixture()

	store, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	promo := money("1.50")
	_, err = store.Dispatch(ctx, cart.AddItem{Product: cart.Product{ID: "A", Name: "Tarte", BasePrice: money("2.00"), PromoPrice: &promo, OnPromotion: true}})
	require.NoError(t, err)
	_, err = store.Dispatch(ctx, cart.SetQuantity{ProductID: "A", Quantity: 2})
	require.NoError(t, err)

	order, err := f.service.Checkout(ctx, "s1", &models.CheckoutRequest{Customer: customer, Notes: "  porte bleue "})
	require.NoError(t, err)

	require.Len(t, order.Lines, 1)
	assert.True(t, order.Lines[0].Price.Equal(money("1.50")))
	assert.Equal(t, 2, order.Lines[0].Quantity)
	assert.True(t, order.Subtotal.Equal(money("3.00")))
	assert.True(t, order.ShippingFee.Equal(money("3.50")))
	assert.True(t, order.TotalPrice.Equal(money("6.50")))
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, "porte bleue", order.Notes)

	assert.True(t, store.State().IsEmpty())
	assert.Equal(t, []string{order.ID}, f.notifier.orders)
	assert.Equal(t, 1, f.center.Summary().Unread)
}

func TestCheckout_EmptyCart(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture()

	_, err := f.service.Checkout(context.Background(), "nobody", &models.CheckoutRequest{Customer: customer})
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, f.sessions.Len())
}

func TestCheckout_MissingCustomer(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture()

	_, err := f.service.Checkout(context.Background(), "s", &models.CheckoutRequest{Customer: models.Customer{Name: "Marie", Phone: " "}})
	assert.ErrorIs(t, err, ErrMissingCustomer)
}

func TestCheckout_SaveFailureKeepsCart(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newCheckoutFixture()
	f.orders.Err = errors.New("db down")

	store, err := f.sessions.Get(ctx, "s")
	require.NoError(t, err)
	_, err = store.Dispatch(ctx, cart.AddItem{Product: cart.Product{ID: "A", BasePrice: money("4")}})
	require.NoError(t, err)

	_, err = f.service.Checkout(ctx, "s", &models.CheckoutRequest{Customer: customer})
	require.Error(t, err)
	assert.False(t, store.State().IsEmpty())
	assert.Empty(t, f.notifier.orders)
}

// busyOrders runs during while the order is being saved
type busyOrders struct {
	*repotest.Orders
	during func()
}

func (o *busyOrders) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	o.during()
	return o.Orders.Create(ctx, order)
}

func TestCheckout_KeepsItemsAddedWhileSaving(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newCheckoutFixture()

	store, err := f.sessions.Get(ctx, "s")
	require.NoError(t, err)
	_, err = store.Dispatch(ctx, cart.AddItem{Product: cart.Product{ID: "A", Name: "Baguette", BasePrice: money("1.20")}})
	require.NoError(t, err)

	orders := &busyOrders{Orders: f.orders, during: func() {
		_, err := store.Dispatch(ctx, cart.AddItem{Product: cart.Product{ID: "B", Name: "Croissant", BasePrice: money("1.10")}})
		require.NoError(t, err)
		_, err = store.Dispatch(ctx, cart.AddItem{Product: cart.Product{ID: "A", Name: "Baguette", BasePrice: money("1.20")}})
		require.NoError(t, err)
	}}
	checkout := NewCheckoutService(f.sessions, orders, f.center, f.notifier)

	order, err := checkout.Checkout(ctx, "s", &models.CheckoutRequest{Customer: customer})
	require.NoError(t, err)
	require.Len(t, order.Lines, 1)
	assert.Equal(t, "A", order.Lines[0].ProductID)
	assert.Equal(t, 1, order.Lines[0].Quantity)

	left := store.State()
	require.Len(t, left.Lines, 2)
	a, ok := left.Find("A")
	require.True(t, ok)
	assert.Equal(t, 1, a.Quantity)
	b, ok := left.Find("B")
	require.True(t, ok)
	assert.Equal(t, 1, b.Quantity)
	assert.True(t, left.Subtotal.Equal(money("2.30")))
}

func TestCreateOrder_RecomputesTotals(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture()

	order, err := f.service.CreateOrder(context.Background(), &models.CreateOrderRequest{
		Lines: []models.OrderLine{
			{ProductID: "A", Name: "Pain de campagne", Price: money("6.00"), Quantity: 5},
		},
		TotalPrice: money("1.00"),
		Customer:   customer,
	})
	require.NoError(t, err)
	assert.True(t, order.Subtotal.Equal(money("30.00")))
	assert.True(t, order.ShippingFee.IsZero())
	assert.True(t, order.TotalPrice.Equal(money("30.00")))
	require.Len(t, order.History, 1)
	assert.Equal(t, "Order created", order.History[0].Comment)
}

func TestCreateOrder_Invalid(t *testing.T) {
	t.Parallel()
	f := newCheckoutFixture()
	ctx := context.Background()

	cases := map[string]*models.CreateOrderRequest{
		"no lines":   {Customer: customer},
		"zero qty":   {Customer: customer, Lines: []models.OrderLine{{ProductID: "A", Name: "x", Price: money("1"), Quantity: 0}}},
		"no name":    {Customer: customer, Lines: []models.OrderLine{{ProductID: "A", Price: money("1"), Quantity: 1}}},
		"negative":   {Customer: customer, Lines: []models.OrderLine{{ProductID: "A", Name: "x", Price: money("-1"), Quantity: 1}}},
		"bad status": {Customer: customer, Status: "lost", Lines: []models.OrderLine{{ProductID: "A", Name: "x", Price: money("1"), Quantity: 1}}},
	}
	for name, req := range cases {
		_, err := f.service.CreateOrder(ctx, req)
		assert.ErrorIs(t, err, ErrInvalidOrder, name)
	}

	_, err := f.service.CreateOrder(ctx, &models.CreateOrderRequest{
		Lines: []models.OrderLine{{ProductID: "A", Name: "x", Price: money("1"), Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrMissingCustomer)
}
