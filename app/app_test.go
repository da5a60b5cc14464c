package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boulangerie/config"
	"boulangerie/models"
	"boulangerie/repository/repotest"
	"boulangerie/service"
	"boulangerie/storage"
)

const (
	baguetteID  = "0b5a3c2e-1f4d-4a8e-9c1b-2d3e4f5a6b7c"
	painID      = "1c6b4d3f-2a5e-4b9f-8d2c-3e4f5a6b7c8d"
	briocheID   = "2d7c5e4a-3b6f-4c0a-9e3d-4f5a6b7c8d9e"
	unknownUUID = "9f8e7d6c-5b4a-4321-8fed-cba987654321"
)

type testApp struct {
	t        *testing.T
	app      *App
	products *repotest.Products
	orders   *repotest.Orders
	session  string
	token    string
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestApp(t *testing.T, opts ...func(*config.Config)) *testApp {
	t.Helper()
	promo := money("4.00")
	products := repotest.NewProducts(
		models.Product{ID: baguetteID, Name: "Baguette", Image: "b.jpg", Category: "Pains", Price: money("4.50"), Available: true},
		models.Product{ID: painID, Name: "Pain de campagne", Image: "p.jpg", Category: "Pains", Price: money("6.00"), Available: true},
		models.Product{ID: briocheID, Name: "Brioche", Image: "br.jpg", Category: "Viennoiseries", Price: money("5.00"), PromoPrice: &promo, OnPromotion: true, Available: false},
	)
	orders := repotest.NewOrders()
	cfg := &config.Config{
		AdminEmail:     "admin@boulangerie.com",
		AdminPassword:  "admin123",
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		NotifyInterval: time.Minute,
		ImageCacheDir:  t.TempDir(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	a := Build(cfg, Deps{
		Products:  products,
		Orders:    orders,
		Snapshots: storage.NewMemoryStore(),
		Notifier:  service.LogNotifier{},
	})
	return &testApp{t: t, app: a, products: products, orders: orders}
}

func (ta *testApp) do(method, path string, body any) *httptest.ResponseRecorder {
	ta.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(ta.t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if ta.session != "" {
		req.Header.Set("X-Cart-Session", ta.session)
	}
	if ta.token != "" {
		req.Header.Set("Authorization", "Bearer "+ta.token)
	}
	rec := httptest.NewRecorder()
	ta.app.Handler.ServeHTTP(rec, req)
	if s := rec.Header().Get("X-Cart-Session"); s != "" {
		ta.session = s
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func assertCart(t *testing.T, rec *httptest.ResponseRecorder, subtotal, shipping, total string) models.CartResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c := decode[models.CartResponse](t, rec)
	assert.True(t, c.Subtotal.Equal(money(subtotal)), "subtotal %s", c.Subtotal)
	assert.True(t, c.ShippingFee.Equal(money(shipping)), "shipping %s", c.ShippingFee)
	assert.True(t, c.Total.Equal(money(total)), "total %s", c.Total)
	return c
}

func (ta *testApp) login() {
	ta.t.Helper()
	rec := ta.do(http.MethodPost, "/admin/login", models.LoginRequest{Email: "admin@boulangerie.com", Password: "admin123"})
	require.Equal(ta.t, http.StatusOK, rec.Code, rec.Body.String())
	ta.token = decode[models.LoginResponse](ta.t, rec).Token
}

func TestPingAndCORS(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = ta.do(http.MethodOptions, "/admin/orders", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestProducts(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(http.MethodGet, "/api/products?category=Pains&sort=price_asc", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Product](t, rec), 2)

	rec = ta.do(http.MethodGet, "/api/products?minPrice=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid filter", decode[models.ErrorResponse](t, rec).Error)

	rec = ta.do(http.MethodGet, "/api/products/category/Viennoiseries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Product](t, rec), 1)

	rec = ta.do(http.MethodGet, "/api/products/"+baguetteID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Baguette", decode[models.Product](t, rec).Name)

	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodGet, "/api/products/not-a-uuid", nil).Code)
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodGet, "/api/products/"+unknownUUID, nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, ta.do(http.MethodPost, "/api/products", nil).Code)
}

func TestCartFlow(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(http.MethodGet, "/api/cart", nil)
	c := assertCart(t, rec, "0", "0", "0")
	assert.NotEmpty(t, c.SessionID)
	assert.Equal(t, c.SessionID, ta.session)

	rec = ta.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: baguetteID})
	assertCart(t, rec, "4.50", "3.50", "8.00")

	ta.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: painID})
	rec = ta.do(http.MethodPut, "/api/cart/items/"+painID, map[string]int{"quantity": 5})
	c = assertCart(t, rec, "34.50", "0", "34.50")
	assert.Equal(t, 6, c.ItemCount)

	rec = ta.do(http.MethodDelete, "/api/cart/items/"+painID, nil)
	assertCart(t, rec, "4.50", "3.50", "8.00")

	rec = ta.do(http.MethodPost, "/api/cart/actions", `{"kind":"SetQuantity","productId":"`+baguetteID+`","quantity":0}`)
	c = assertCart(t, rec, "0", "3.50", "3.50")
	assert.Empty(t, c.Lines)

	rec = ta.do(http.MethodDelete, "/api/cart", nil)
	assertCart(t, rec, "0", "0", "0")
}

func TestCartRejections(t *testing.T) {
	ta := newTestApp(t)

	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: unknownUUID}).Code)
	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: briocheID}).Code)
	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{}).Code)
	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodPut, "/api/cart/items/"+baguetteID, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodPost, "/api/cart/actions", `{"kind":"Teleport"}`).Code)
	assert.Equal(t, http.StatusForbidden, ta.do(http.MethodPost, "/api/cart/actions", `{"kind":"ApplyDiscount","amount":5}`).Code)

	// AddItem through actions is priced from the catalog, not the payload
	rec := ta.do(http.MethodPost, "/api/cart/actions",
		`{"kind":"AddItem","product":{"id":"`+baguetteID+`","basePrice":0.01}}`)
	assertCart(t, rec, "4.50", "3.50", "8.00")
}

func TestCartSessionsAreIsolated(t *testing.T) {
	ta := newTestApp(t)

	ta.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: baguetteID})
	first := ta.session

	ta.session = ""
	rec := ta.do(http.MethodGet, "/api/cart", nil)
	assertCart(t, rec, "0", "0", "0")
	assert.NotEqual(t, first, ta.session)

	ta.session = first
	rec = ta.do(http.MethodGet, "/api/cart", nil)
	assertCart(t, rec, "4.50", "3.50", "8.00")
}

func TestCartReadsDoNotOpenSessions(t *testing.T) {
	ta := newTestApp(t)

	for i := 0; i < 200; i++ {
		ta.session = ""
		assertCart(t, ta.do(http.MethodGet, "/api/cart", nil), "0", "0", "0")
	}
	assert.Equal(t, 0, ta.app.Sessions.Len())

	ta.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: baguetteID})
	assert.Equal(t, 1, ta.app.Sessions.Len())
}

func TestIdleCartsAreSweptAndRestored(t *testing.T) {
	ta := newTestApp(t, func(cfg *config.Config) { cfg.CartIdleTime = 20 * time.Millisecond })

	ta.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: painID})
	require.Equal(t, 1, ta.app.Sessions.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ta.app.Run(ctx)

	assert.Eventually(t, func() bool { return ta.app.Sessions.Len() == 0 }, time.Second, 10*time.Millisecond)

	rec := ta.do(http.MethodGet, "/api/cart", nil)
	assertCart(t, rec, "6.00", "3.50", "9.50")
}

func TestCheckoutAndAdminOrders(t *testing.T) {
	ta := newTestApp(t)

	customer := models.Customer{Name: "Marie", Phone: "0601020304", Address: "3 rue du Four"}
	rec := ta.do(http.MethodPost, "/api/cart/checkout", models.CheckoutRequest{Customer: customer})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ta.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: baguetteID})
	ta.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: baguetteID})

	rec = ta.do(http.MethodPost, "/api/cart/checkout", models.CheckoutRequest{Customer: models.Customer{Name: "Marie"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ta.do(http.MethodPost, "/api/cart/checkout", models.CheckoutRequest{Customer: customer})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	assert.True(t, order.TotalPrice.Equal(money("12.50")))
	assertCart(t, ta.do(http.MethodGet, "/api/cart", nil), "0", "0", "0")

	rec = ta.do(http.MethodGet, "/api/orders/"+order.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// admin surface
	assert.Equal(t, http.StatusUnauthorized, ta.do(http.MethodGet, "/admin/orders", nil).Code)
	ta.login()

	rec = ta.do(http.MethodGet, "/admin/notifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[models.NotificationSummary](t, rec)
	assert.Equal(t, 1, summary.Unread)
	require.NotNil(t, summary.Latest)
	assert.Equal(t, order.ID, summary.Latest.ID)

	rec = ta.do(http.MethodPost, "/admin/notifications/seen", nil)
	assert.Equal(t, 0, decode[models.NotificationSummary](t, rec).Unread)

	rec = ta.do(http.MethodGet, "/admin/orders/new", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[models.NewOrdersResponse](t, rec).Count)

	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodPut, "/admin/orders/"+order.ID, models.UpdateOrderStatusRequest{Status: "lost"}).Code)

	rec = ta.do(http.MethodPut, "/admin/orders/"+order.ID, models.UpdateOrderStatusRequest{Status: models.StatusConfirmed})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[models.Order](t, rec)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	require.Len(t, updated.History, 2)
	assert.Equal(t, `Status changed to "confirmed"`, updated.History[1].Comment)

	rec = ta.do(http.MethodGet, "/admin/orders", nil)
	assert.Len(t, decode[[]models.Order](t, rec), 1)

	assert.Equal(t, http.StatusOK, ta.do(http.MethodDelete, "/admin/orders/"+order.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodGet, "/admin/orders/"+order.ID, nil).Code)
	assert.Empty(t, decode[models.NotificationSummary](t, ta.do(http.MethodGet, "/admin/notifications", nil)).Recent)
}

func TestCreateOrderAndWebhook(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(http.MethodPost, "/api/orders", models.CreateOrderRequest{
		Lines:    []models.OrderLine{{ProductID: painID, Name: "Pain de campagne", Price: money("6.00"), Quantity: 2}},
		Customer: models.Customer{Name: "Paul", Phone: "0611", Address: "1 place du Marché"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decode[models.Order](t, rec)
	assert.True(t, order.TotalPrice.Equal(money("15.50")))

	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodPost, "/api/orders", models.CreateOrderRequest{}).Code)

	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodPost, "/api/webhooks/new-order", `{}`).Code)
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodPost, "/api/webhooks/new-order", models.WebhookNewOrderRequest{OrderID: unknownUUID}).Code)
	rec = ta.do(http.MethodPost, "/api/webhooks/new-order", models.WebhookNewOrderRequest{OrderID: order.ID})
	assert.Equal(t, http.StatusOK, rec.Code)

	ta.login()
	rec = ta.do(http.MethodDelete, "/admin/orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[models.DeleteOrdersResponse](t, rec).Count)
	assert.Equal(t, 0, decode[models.NotificationSummary](t, ta.do(http.MethodGet, "/admin/notifications", nil)).Unread)
}

func TestAdminCartOverrides(t *testing.T) {
	ta := newTestApp(t)

	ta.do(http.MethodPost, "/api/cart/items", models.AddToCartRequest{ProductID: painID})
	session := ta.session

	ta.session = ""
	assert.Equal(t, http.StatusUnauthorized, ta.do(http.MethodPost, "/admin/carts/"+session+"/discount", map[string]string{"amount": "1"}).Code)
	ta.login()

	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodPost, "/admin/carts/"+session+"/discount", `{"amount": -1}`).Code)
	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodPost, "/admin/carts/"+session+"/shipping", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodPost, "/admin/carts/bogus/discount", `{"amount": 1}`).Code)

	rec := ta.do(http.MethodPost, "/admin/carts/"+session+"/discount", `{"amount": 2}`)
	assertCart(t, rec, "6.00", "3.50", "7.50")

	rec = ta.do(http.MethodPost, "/admin/carts/"+session+"/shipping", `{"amount": 0}`)
	assertCart(t, rec, "6.00", "0", "4.00")

	rec = ta.do(http.MethodDelete, "/admin/carts/"+session, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ta.session = session
	rec = ta.do(http.MethodGet, "/api/cart", nil)
	assertCart(t, rec, "0", "0", "0")
}

func TestAdminProducts(t *testing.T) {
	ta := newTestApp(t)

	req := models.ProductRequest{
		Name: "Fougasse", Image: "f.jpg", Price: money("3.20"), Description: "Aux olives",
		Ingredients: []string{"Farine", "Olives"}, Category: "Pains",
	}
	assert.Equal(t, http.StatusUnauthorized, ta.do(http.MethodPost, "/admin/products", req).Code)

	ta.login()
	rec := ta.do(http.MethodPost, "/admin/products", req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Product](t, rec)
	assert.True(t, created.Available)

	bad := req
	promo := money("3.50")
	bad.PromoPrice = &promo
	bad.OnPromotion = true
	assert.Equal(t, http.StatusBadRequest, ta.do(http.MethodPost, "/admin/products", bad).Code)

	req.Price = money("3.40")
	rec = ta.do(http.MethodPut, "/admin/products/"+created.ID, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.Product](t, rec).Price.Equal(money("3.40")))

	assert.Equal(t, http.StatusOK, ta.do(http.MethodDelete, "/admin/products/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, ta.do(http.MethodDelete, "/admin/products/"+created.ID, nil).Code)
}

func TestAdminLoginAndCatalog(t *testing.T) {
	ta := newTestApp(t)

	rec := ta.do(http.MethodPost, "/admin/login", models.LoginRequest{Email: "admin@boulangerie.com", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ta.token = "forged"
	assert.Equal(t, http.StatusUnauthorized, ta.do(http.MethodGet, "/admin/catalog/render", nil).Code)

	ta.token = ""
	ta.login()
	rec = ta.do(http.MethodGet, "/admin/catalog/render", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Pain de campagne")
	assert.NotContains(t, rec.Body.String(), "Brioche")
}
